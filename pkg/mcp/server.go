// Package mcp serves masked records and upstream data to language-model
// clients over the Model Context Protocol.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/codeready-toolchain/datamask/pkg/metrics"
	"github.com/codeready-toolchain/datamask/pkg/version"
)

// DataService is the part of datasource.Service exposed through MCP.
type DataService interface {
	Tables() []string
	TableSchema(ctx context.Context, table string) (*datasource.TableSchema, error)
	QueryRecords(ctx context.Context, q datasource.Query) ([]masking.Value, error)
	FetchUpstream(ctx context.Context, endpoint string, params map[string]string, limit int) (masking.Value, error)
	Mask(v masking.Value) masking.Value
}

// Server wraps an MCP SDK server with the datamask tools and resources.
type Server struct {
	data    DataService
	metrics *metrics.Metrics
	sdk     *mcpsdk.Server
}

// NewServer creates the server and registers every tool and resource.
// m may be nil.
func NewServer(data DataService, m *metrics.Metrics) *Server {
	s := &Server{
		data:    data,
		metrics: m,
		sdk: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    version.AppName,
			Version: version.GitCommit,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves a single session on transport until the client disconnects or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	slog.Info("MCP server running", "name", version.AppName, "version", version.GitCommit)
	if err := s.sdk.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunStdio serves on the process's stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcpsdk.StdioTransport{})
}

// toText renders v as indented JSON. Non-ASCII and HTML characters are
// written verbatim.
func toText(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
