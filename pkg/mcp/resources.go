package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
)

const jsonMIMEType = "application/json"

// resourceTables are published as data:// and schema:// resources.
var resourceTables = []string{"employees", "projects"}

func (s *Server) registerResources() {
	for _, table := range resourceTables {
		s.sdk.AddResource(&mcpsdk.Resource{
			URI:         "data://" + table,
			Name:        table,
			Description: "All " + table + " records with sensitive fields masked",
			MIMEType:    jsonMIMEType,
		}, s.readTable(table))
		s.sdk.AddResource(&mcpsdk.Resource{
			URI:         "schema://" + table,
			Name:        table + "-schema",
			Description: "Column definitions of the " + table + " table",
			MIMEType:    jsonMIMEType,
		}, s.readSchema(table))
	}
}

func (s *Server) readTable(table string) mcpsdk.ResourceHandler {
	return func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		records, err := s.data.QueryRecords(ctx, datasource.Query{Table: table})
		if err != nil {
			return nil, resourceError(req.Params.URI, err)
		}
		if s.metrics != nil {
			s.metrics.ObserveRecords(table, len(records))
		}
		return textResource(req.Params.URI, records)
	}
}

func (s *Server) readSchema(table string) mcpsdk.ResourceHandler {
	return func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		schema, err := s.data.TableSchema(ctx, table)
		if err != nil {
			return nil, resourceError(req.Params.URI, err)
		}
		return textResource(req.Params.URI, schema.Columns)
	}
}

// resourceError reports tables that are not exposed as missing resources.
func resourceError(uri string, err error) error {
	if errors.Is(err, datasource.ErrUnknownTable) {
		return mcpsdk.ResourceNotFoundError(uri)
	}
	slog.Error("Failed to read MCP resource", "uri", uri, "error", err)
	return err
}

func textResource(uri string, v any) (*mcpsdk.ReadResourceResult, error) {
	text, err := toText(v)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     text,
		}},
	}, nil
}
