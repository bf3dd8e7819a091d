package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
)

// listTablesHandler handles GET /api/v1/tables.
func (s *Server) listTablesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, TablesResponse{Tables: s.data.Tables()})
}

// tableSchemaHandler handles GET /api/v1/tables/:table/schema.
func (s *Server) tableSchemaHandler(c *gin.Context) {
	schema, err := s.data.TableSchema(c.Request.Context(), c.Param("table"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// queryRecordsHandler handles GET /api/v1/tables/:table/records.
// Every query parameter other than limit is an equality filter.
func (s *Server) queryRecordsHandler(c *gin.Context) {
	query := c.Request.URL.Query()
	limit, err := parseLimit(query)
	if err != nil {
		abortWithError(c, err)
		return
	}

	table := c.Param("table")
	records, err := s.data.QueryRecords(c.Request.Context(), datasource.Query{
		Table:   table,
		Filters: otherParams(query),
		Limit:   limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveRecords(table, len(records))
	}
	c.JSON(http.StatusOK, RecordsResponse{
		Table:   table,
		Count:   len(records),
		Records: records,
	})
}

// fetchUpstreamHandler handles GET /api/v1/upstream/*endpoint.
// Query parameters other than limit are forwarded to the upstream API.
func (s *Server) fetchUpstreamHandler(c *gin.Context) {
	query := c.Request.URL.Query()
	limit, err := parseLimit(query)
	if err != nil {
		abortWithError(c, err)
		return
	}

	endpoint := c.Param("endpoint")
	data, err := s.data.FetchUpstream(c.Request.Context(), endpoint, otherParams(query), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, UpstreamResponse{Endpoint: endpoint, Data: data})
}

// maskHandler handles POST /api/v1/mask. The body may be any JSON document.
func (s *Server) maskHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMaskBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		abortWithError(c, datasource.NewValidationError("body", "could not be read"))
		return
	}

	doc, err := masking.ParseJSON(body)
	if err != nil {
		abortWithError(c, datasource.NewValidationError("body", "must be valid JSON"))
		return
	}
	c.JSON(http.StatusOK, s.data.Mask(doc))
}
