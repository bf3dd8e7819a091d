package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/codeready-toolchain/datamask/pkg/database"
	"github.com/codeready-toolchain/datamask/pkg/datasource"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/codeready-toolchain/datamask/pkg/metrics"
)

// fakeDataService serves fixed records and masks with the default engine.
type fakeDataService struct {
	engine *masking.Engine

	lastQuery    datasource.Query
	lastEndpoint string
	lastParams   map[string]string
	lastLimit    int

	upstream    masking.Value
	upstreamErr error
}

func newFakeDataService(t *testing.T) *fakeDataService {
	t.Helper()
	upstream, err := masking.ParseJSON([]byte(`[
		{"id": 1, "name": "Leanne", "email": "Sincere@april.biz", "phone": "1-770-736-8031"},
		{"id": 2, "name": "Ervin", "email": "Shanna@melissa.tv", "phone": "010-692-6593"}
	]`))
	require.NoError(t, err)
	return &fakeDataService{
		engine:   masking.NewEngine(masking.NewPolicy(true, masking.DefaultSensitiveFields), nil),
		upstream: upstream,
	}
}

func (f *fakeDataService) Tables() []string {
	return []string{"employees", "projects"}
}

func (f *fakeDataService) TableSchema(_ context.Context, table string) (*datasource.TableSchema, error) {
	if table != "employees" {
		return nil, fmt.Errorf("%w: %s", datasource.ErrUnknownTable, table)
	}
	return &datasource.TableSchema{
		Table: "employees",
		Columns: []datasource.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "email", Type: "text", Nullable: true},
		},
	}, nil
}

func (f *fakeDataService) QueryRecords(_ context.Context, q datasource.Query) ([]masking.Value, error) {
	f.lastQuery = q
	if q.Table != "employees" {
		return nil, fmt.Errorf("%w: %s", datasource.ErrUnknownTable, q.Table)
	}
	for col := range q.Filters {
		if col != "department" {
			return nil, fmt.Errorf("%w: %s.%s", datasource.ErrUnknownColumn, q.Table, col)
		}
	}
	record := masking.Mapping(
		masking.Field{Key: "id", Value: masking.Scalar(json.Number("1"))},
		masking.Field{Key: "name", Value: masking.String("張小明")},
		masking.Field{Key: "email", Value: masking.String("zhang@company.com")},
		masking.Field{Key: "phone", Value: masking.String("0912-345-678")},
	)
	return f.engine.MaskRecords([]masking.Value{record}), nil
}

func (f *fakeDataService) FetchUpstream(_ context.Context, endpoint string, params map[string]string, limit int) (masking.Value, error) {
	f.lastEndpoint, f.lastParams, f.lastLimit = endpoint, params, limit
	if f.upstreamErr != nil {
		return masking.Value{}, f.upstreamErr
	}
	return f.engine.Mask(f.upstream.Truncate(limit)), nil
}

func (f *fakeDataService) Mask(v masking.Value) masking.Value {
	return f.engine.Mask(v)
}

func healthyDB(_ context.Context) (*database.HealthStatus, error) {
	return &database.HealthStatus{Status: "healthy", SchemaVersion: 2}, nil
}

func newTestServer(t *testing.T, data DataService, health HealthFunc) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	stats := config.Stats{MaskingEnabled: true, MaskedFields: 5, Tables: 2}
	return NewServer(data, health, m, stats), m
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name         string
		health       HealthFunc
		expectCode   int
		expectStatus string
	}{
		{
			name:         "healthy database",
			health:       healthyDB,
			expectCode:   http.StatusOK,
			expectStatus: healthStatusHealthy,
		},
		{
			name: "missing migrations is degraded",
			health: func(context.Context) (*database.HealthStatus, error) {
				return &database.HealthStatus{Status: "degraded"}, nil
			},
			expectCode:   http.StatusOK,
			expectStatus: healthStatusDegraded,
		},
		{
			name: "unreachable database is unhealthy",
			health: func(context.Context) (*database.HealthStatus, error) {
				return &database.HealthStatus{Status: "unhealthy"}, errors.New("connection refused")
			},
			expectCode:   http.StatusServiceUnavailable,
			expectStatus: healthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, newFakeDataService(t), tt.health)
			rec := doRequest(t, s, http.MethodGet, "/health", "")

			assert.Equal(t, tt.expectCode, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectStatus, resp.Status)
			assert.Equal(t, tt.expectStatus, resp.Checks["database"].Status)
			assert.NotEmpty(t, resp.Version)
			require.NotNil(t, resp.Configuration)
			assert.True(t, resp.Configuration.MaskingEnabled)
			assert.Equal(t, 2, resp.Configuration.Tables)
		})
	}
}

func TestHealthHandlerWithoutDatabase(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), nil)
	rec := doRequest(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestListTablesHandler(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/tables", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tables":["employees","projects"]}`, rec.Body.String())
}

func TestTableSchemaHandler(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)

	t.Run("known table", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/tables/employees/schema", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"table":"employees","columns":[
			{"name":"id","type":"integer","nullable":false,"primary_key":true},
			{"name":"email","type":"text","nullable":true,"primary_key":false}
		]}`, rec.Body.String())
	})

	t.Run("unknown table", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/tables/salaries/schema", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"unknown table: salaries"}`, rec.Body.String())
	})
}

func TestQueryRecordsHandler(t *testing.T) {
	data := newFakeDataService(t)
	s, m := newTestServer(t, data, healthyDB)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/tables/employees/records?department=RD&limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"table":"employees","count":1,"records":[`+
		`{"id":1,"name":"張小明","email":"z***g@company.com","phone":"09******78"}]}`,
		rec.Body.String())
	assert.Equal(t, datasource.Query{
		Table:   "employees",
		Filters: map[string]string{"department": "RD"},
		Limit:   5,
	}, data.lastQuery)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsServed.WithLabelValues("employees")))
}

func TestQueryRecordsHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		expectCode int
		expectMsg  string
	}{
		{
			name:       "non-numeric limit",
			target:     "/api/v1/tables/employees/records?limit=ten",
			expectCode: http.StatusBadRequest,
			expectMsg:  "must be an integer",
		},
		{
			name:       "negative limit",
			target:     "/api/v1/tables/employees/records?limit=-1",
			expectCode: http.StatusBadRequest,
			expectMsg:  "must not be negative",
		},
		{
			name:       "unknown filter column",
			target:     "/api/v1/tables/employees/records?shoe_size=42",
			expectCode: http.StatusBadRequest,
			expectMsg:  "unknown column: employees.shoe_size",
		},
		{
			name:       "unknown table",
			target:     "/api/v1/tables/salaries/records",
			expectCode: http.StatusNotFound,
			expectMsg:  "unknown table: salaries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, newFakeDataService(t), healthyDB)
			rec := doRequest(t, s, http.MethodGet, tt.target, "")

			assert.Equal(t, tt.expectCode, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.expectMsg)
		})
	}
}

func TestFetchUpstreamHandler(t *testing.T) {
	data := newFakeDataService(t)
	s, _ := newTestServer(t, data, healthyDB)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/upstream/users?limit=1&_sort=name", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"endpoint":"/users","data":[`+
		`{"id":1,"name":"Leanne","email":"S*****e@april.biz","phone":"1************1"}]}`,
		rec.Body.String())
	assert.Equal(t, "/users", data.lastEndpoint)
	assert.Equal(t, map[string]string{"_sort": "name"}, data.lastParams)
	assert.Equal(t, 1, data.lastLimit)
}

func TestFetchUpstreamHandlerNestedEndpoint(t *testing.T) {
	data := newFakeDataService(t)
	s, _ := newTestServer(t, data, healthyDB)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/upstream/users/1/posts", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/1/posts", data.lastEndpoint)
	assert.Equal(t, 0, data.lastLimit)
}

func TestFetchUpstreamHandlerErrors(t *testing.T) {
	tests := []struct {
		name        string
		upstreamErr error
		expectCode  int
	}{
		{
			name:        "upstream failure",
			upstreamErr: &datasource.UpstreamError{Endpoint: "/users", StatusCode: http.StatusServiceUnavailable},
			expectCode:  http.StatusBadGateway,
		},
		{
			name:        "invalid endpoint",
			upstreamErr: datasource.NewValidationError("endpoint", "must not contain '..' segments"),
			expectCode:  http.StatusBadRequest,
		},
		{
			name:        "unexpected failure",
			upstreamErr: errors.New("boom"),
			expectCode:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newFakeDataService(t)
			data.upstreamErr = tt.upstreamErr
			s, _ := newTestServer(t, data, healthyDB)

			rec := doRequest(t, s, http.MethodGet, "/api/v1/upstream/users", "")
			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":`)
		})
	}
}

func TestMaskHandler(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)

	tests := []struct {
		name       string
		body       string
		expectCode int
		expectBody string
	}{
		{
			name:       "record",
			body:       `{"name":"王大華","email":"wang@company.com","ssn":"123-45-6789"}`,
			expectCode: http.StatusOK,
			expectBody: `{"name":"王大華","email":"w**g@company.com","ssn":"***-**-6789"}`,
		},
		{
			name:       "list of records",
			body:       `[{"password":"hunter2"},{"note":"keep"}]`,
			expectCode: http.StatusOK,
			expectBody: `[{"password":"h*****2"},{"note":"keep"}]`,
		},
		{
			name:       "bare scalar passes through",
			body:       `"zhang@company.com"`,
			expectCode: http.StatusOK,
			expectBody: `"zhang@company.com"`,
		},
		{
			name:       "invalid JSON",
			body:       `{"email":`,
			expectCode: http.StatusBadRequest,
			expectBody: `{"error":"validation error on field 'body': must be valid JSON"}`,
		},
		{
			name:       "empty body",
			body:       "",
			expectCode: http.StatusBadRequest,
			expectBody: `{"error":"validation error on field 'body': must be valid JSON"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/v1/mask", tt.body)
			assert.Equal(t, tt.expectCode, rec.Code)
			assert.Equal(t, tt.expectBody, rec.Body.String())
		})
	}
}

func TestMaskHandlerBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)
	body := `{"note":"` + strings.Repeat("a", maxMaskBodyBytes) + `"}`

	rec := doRequest(t, s, http.MethodPost, "/api/v1/mask", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)

	doRequest(t, s, http.MethodGet, "/api/v1/tables", "")
	doRequest(t, s, http.MethodPost, "/api/v1/mask", `{"email":"zhang@company.com"}`)
	rec := doRequest(t, s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`datamask_http_requests_total{method="GET",route="/api/v1/tables",status="200"} 1`)
	assert.Contains(t, rec.Body.String(),
		`datamask_http_requests_total{method="POST",route="/api/v1/mask",status="200"} 1`)
}

func TestSecurityHeadersOnAPIResponses(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/tables", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestShutdownBeforeStart(t *testing.T) {
	s, _ := newTestServer(t, newFakeDataService(t), healthyDB)
	assert.NoError(t, s.Shutdown(context.Background()))
}
