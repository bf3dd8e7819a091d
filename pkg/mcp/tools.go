package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
)

// defaultQueryLimit is the row limit of query tools when none is given.
const defaultQueryLimit = 50

var (
	queryEmployeesSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "department": {"type": "string", "description": "Only employees of this department"},
    "limit": {"type": "integer", "minimum": 0, "description": "Maximum number of rows (default 50)"}
  }
}`)
	queryProjectsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "status": {"type": "string", "description": "Only projects with this status"},
    "limit": {"type": "integer", "minimum": 0, "description": "Maximum number of rows (default 50)"}
  }
}`)
	queryTableSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "table": {"type": "string", "description": "Table name, see list_tables"},
    "filters": {"type": "object", "description": "Column equality filters", "additionalProperties": {"type": ["string", "number", "boolean"]}},
    "limit": {"type": "integer", "minimum": 0, "description": "Maximum number of rows (default 50)"}
  },
  "required": ["table"]
}`)
	fetchAPIDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "endpoint": {"type": "string", "description": "Path relative to the API base URL, e.g. users, posts/1, users/1/posts"},
    "params": {"type": "object", "description": "Query parameters", "additionalProperties": {"type": "string"}},
    "limit": {"type": "integer", "minimum": 0, "description": "Keep only the first N entries of a list response"}
  },
  "required": ["endpoint"]
}`)
	maskDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "data": {"description": "Any JSON value, or a string holding a JSON document"}
  },
  "required": ["data"]
}`)
	emptySchema = json.RawMessage(`{"type": "object"}`)
)

type queryEmployeesArgs struct {
	Department string `json:"department"`
	Limit      *int   `json:"limit"`
}

type queryProjectsArgs struct {
	Status string `json:"status"`
	Limit  *int   `json:"limit"`
}

type queryTableArgs struct {
	Table   string                     `json:"table"`
	Filters map[string]json.RawMessage `json:"filters"`
	Limit   *int                       `json:"limit"`
}

type fetchAPIDataArgs struct {
	Endpoint string            `json:"endpoint"`
	Params   map[string]string `json:"params"`
	Limit    int               `json:"limit"`
}

type maskDataArgs struct {
	Data json.RawMessage `json:"data"`
}

// toolFunc produces the value a tool returns. Errors become tool-level
// errors visible to the model rather than protocol errors.
type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

func (s *Server) registerTools() {
	s.addTool("query_employees",
		"Query employee records, optionally filtered by department. Sensitive fields such as email and phone are masked.",
		queryEmployeesSchema, s.queryEmployees)
	s.addTool("query_projects",
		"Query project records, optionally filtered by status.",
		queryProjectsSchema, s.queryProjects)
	s.addTool("query_table",
		"Query any exposed table with column equality filters. Sensitive fields are masked.",
		queryTableSchema, s.queryTable)
	s.addTool("fetch_api_data",
		"Fetch JSON from the configured external API. Sensitive fields are masked.",
		fetchAPIDataSchema, s.fetchAPIData)
	s.addTool("mask_data",
		"Mask sensitive fields in arbitrary JSON data.",
		maskDataSchema, s.maskData)
	s.addTool("list_tables",
		"List the tables that can be queried.",
		emptySchema, s.listTables)
}

func (s *Server) addTool(name, description string, schema json.RawMessage, fn toolFunc) {
	s.sdk.AddTool(&mcpsdk.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		result, err := fn(ctx, req.Params.Arguments)
		if s.metrics != nil {
			s.metrics.ObserveToolCall(name, err)
		}
		if err != nil {
			slog.Warn("MCP tool call failed", "tool", name, "error", err)
			return errorResult(err), nil
		}
		text, err := toText(result)
		if err != nil {
			return errorResult(fmt.Errorf("encode result: %w", err)), nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		}, nil
	})
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "error: " + err.Error()}},
		IsError: true,
	}
}

// decodeArgs unmarshals tool arguments; absent arguments leave target zero.
func decodeArgs(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return datasource.NewValidationError("arguments", err.Error())
	}
	return nil
}

func limitOrDefault(limit *int) int {
	if limit == nil {
		return defaultQueryLimit
	}
	return *limit
}

func (s *Server) queryEmployees(ctx context.Context, raw json.RawMessage) (any, error) {
	var args queryEmployeesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	filters := map[string]string{}
	if args.Department != "" {
		filters["department"] = args.Department
	}
	return s.query(ctx, "employees", filters, limitOrDefault(args.Limit))
}

func (s *Server) queryProjects(ctx context.Context, raw json.RawMessage) (any, error) {
	var args queryProjectsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	filters := map[string]string{}
	if args.Status != "" {
		filters["status"] = args.Status
	}
	return s.query(ctx, "projects", filters, limitOrDefault(args.Limit))
}

func (s *Server) queryTable(ctx context.Context, raw json.RawMessage) (any, error) {
	var args queryTableArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Table) == "" {
		return nil, datasource.NewValidationError("table", "is required")
	}
	filters := make(map[string]string, len(args.Filters))
	for col, raw := range args.Filters {
		v, err := filterValue(col, raw)
		if err != nil {
			return nil, err
		}
		filters[col] = v
	}
	return s.query(ctx, args.Table, filters, limitOrDefault(args.Limit))
}

// filterValue renders a filter scalar as the text it is compared against.
// Numbers keep their literal form.
func filterValue(col string, raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", datasource.NewValidationError("filters", fmt.Sprintf("value for %q: %v", col, err))
	}
	switch t := v.(type) {
	case nil:
		return "", datasource.NewValidationError("filters", fmt.Sprintf("value for %q must not be null", col))
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", datasource.NewValidationError("filters", fmt.Sprintf("value for %q must be a string, number or boolean", col))
	}
}

func (s *Server) query(ctx context.Context, table string, filters map[string]string, limit int) (any, error) {
	records, err := s.data.QueryRecords(ctx, datasource.Query{
		Table:   table,
		Filters: filters,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRecords(table, len(records))
	}
	return records, nil
}

func (s *Server) fetchAPIData(ctx context.Context, raw json.RawMessage) (any, error) {
	var args fetchAPIDataArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	return s.data.FetchUpstream(ctx, args.Endpoint, args.Params, args.Limit)
}

// maskData accepts either a JSON value or a string holding a JSON document.
// A string that is not valid JSON is returned unchanged: it has no field
// names to decide on.
func (s *Server) maskData(_ context.Context, raw json.RawMessage) (any, error) {
	var args maskDataArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Data) == 0 {
		return nil, datasource.NewValidationError("data", "is required")
	}

	doc, err := masking.ParseJSON(args.Data)
	if err != nil {
		return nil, datasource.NewValidationError("data", err.Error())
	}
	if str, ok := doc.Raw().(string); ok {
		if inner, err := masking.ParseJSON([]byte(str)); err == nil {
			doc = inner
		}
	}
	return s.data.Mask(doc), nil
}

func (s *Server) listTables(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string][]string{"tables": s.data.Tables()}, nil
}
