package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
)

// mapServiceError maps service-layer errors to an HTTP status and message.
func mapServiceError(err error) (int, string) {
	var validErr *datasource.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, validErr.Error()
	}
	if errors.Is(err, datasource.ErrUnknownTable) {
		return http.StatusNotFound, err.Error()
	}
	if errors.Is(err, datasource.ErrUnknownColumn) {
		return http.StatusBadRequest, err.Error()
	}
	if errors.Is(err, datasource.ErrUpstream) {
		slog.Warn("Upstream request failed", "error", err)
		return http.StatusBadGateway, "upstream request failed"
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return http.StatusInternalServerError, "internal server error"
}

// abortWithError writes the mapped error response and stops the chain.
func abortWithError(c *gin.Context, err error) {
	status, msg := mapServiceError(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
