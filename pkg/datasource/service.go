package datasource

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/datamask/pkg/masking"
)

// RecordSource is the read side of the record store.
type RecordSource interface {
	Tables() []string
	Schema(ctx context.Context, table string) (*TableSchema, error)
	Query(ctx context.Context, q Query) ([]masking.Value, error)
}

// Fetcher retrieves raw documents from the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string) (masking.Value, error)
}

// Service is the only way data leaves this process: every record and
// upstream payload passes through the masking engine before it is returned.
type Service struct {
	records  RecordSource
	upstream Fetcher
	engine   *masking.Engine
	cache    *Cache // nil when caching is disabled
}

// NewService wires the collaborators. A non-positive cacheTTL disables the
// upstream cache.
func NewService(records RecordSource, upstream Fetcher, engine *masking.Engine, cacheTTL time.Duration) *Service {
	s := &Service{
		records:  records,
		upstream: upstream,
		engine:   engine,
	}
	if cacheTTL > 0 {
		s.cache = NewCache(cacheTTL)
	}
	return s
}

// Engine returns the masking engine.
func (s *Service) Engine() *masking.Engine {
	return s.engine
}

// Tables returns the queryable table names.
func (s *Service) Tables() []string {
	return s.records.Tables()
}

// TableSchema describes a table. Column names are not sensitive data.
func (s *Service) TableSchema(ctx context.Context, table string) (*TableSchema, error) {
	return s.records.Schema(ctx, table)
}

// QueryRecords runs q and masks every returned row.
func (s *Service) QueryRecords(ctx context.Context, q Query) ([]masking.Value, error) {
	records, err := s.records.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.engine.MaskRecords(records), nil
}

// FetchUpstream retrieves endpoint, truncates a top-level list to limit
// entries (limit <= 0 keeps everything) and masks the result.
// Raw responses are cached; masking is applied on every call.
func (s *Service) FetchUpstream(ctx context.Context, endpoint string, params map[string]string, limit int) (masking.Value, error) {
	if limit < 0 {
		return masking.Value{}, NewValidationError("limit", "must not be negative")
	}

	key := cacheKey(endpoint, params)
	raw, hit := s.cacheGet(key)
	if !hit {
		var err error
		raw, err = s.upstream.Fetch(ctx, endpoint, params)
		if err != nil {
			return masking.Value{}, err
		}
		s.cacheSet(key, raw)
	}

	slog.Debug("Fetched upstream data",
		"endpoint", endpoint,
		"cache_hit", hit,
		"kind", raw.Kind().String())

	return s.engine.Mask(raw.Truncate(limit)), nil
}

// Mask masks an arbitrary caller-supplied document.
func (s *Service) Mask(v masking.Value) masking.Value {
	return s.engine.Mask(v)
}

// PurgeCache drops expired upstream payloads. It is a no-op when caching is
// disabled.
func (s *Service) PurgeCache() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Purge()
}

func (s *Service) cacheGet(key string) (masking.Value, bool) {
	if s.cache == nil {
		return masking.Value{}, false
	}
	return s.cache.Get(key)
}

func (s *Service) cacheSet(key string, v masking.Value) {
	if s.cache != nil {
		s.cache.Set(key, v)
	}
}

// cacheKey is the endpoint followed by the sorted query parameters.
func cacheKey(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(strings.Trim(strings.TrimSpace(endpoint), "/"))
	for _, k := range keys {
		sb.WriteByte('\x00')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}
