// Package datasource reads records from the database and the upstream JSON
// API, and hands every result through the masking engine.
package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/jackc/pgx/v5"
)

// Column describes one table column.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableSchema is the ordered column list of a table.
type TableSchema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// HasColumn reports whether the table has a column with that exact name.
func (s *TableSchema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Query selects rows from one table. Filters are equality conditions
// compared on the column's text representation. A zero Limit means the
// configured default.
type Query struct {
	Table   string
	Filters map[string]string
	Limit   int
}

// RecordStore runs read-only queries against the exposed tables.
type RecordStore struct {
	db           *sql.DB
	tables       []string
	defaultLimit int
	maxLimit     int
}

// NewRecordStore creates a store over db restricted to cfg.Tables.
func NewRecordStore(db *sql.DB, cfg *config.DataSourceConfig) *RecordStore {
	if cfg == nil {
		cfg = config.DefaultDataSourceConfig()
	}
	tables := make([]string, len(cfg.Tables))
	copy(tables, cfg.Tables)
	return &RecordStore{
		db:           db,
		tables:       tables,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// Tables returns the exposed table names.
func (s *RecordStore) Tables() []string {
	out := make([]string, len(s.tables))
	copy(out, s.tables)
	return out
}

const schemaQuery = `
SELECT c.column_name,
       c.data_type,
       c.is_nullable = 'YES',
       EXISTS (
           SELECT 1
           FROM information_schema.table_constraints tc
           JOIN information_schema.key_column_usage kcu
             ON tc.constraint_name = kcu.constraint_name
            AND tc.table_schema = kcu.table_schema
            AND tc.table_name = kcu.table_name
           WHERE tc.constraint_type = 'PRIMARY KEY'
             AND tc.table_schema = c.table_schema
             AND tc.table_name = c.table_name
             AND kcu.column_name = c.column_name
       )
FROM information_schema.columns c
WHERE c.table_schema = current_schema()
  AND c.table_name = $1
ORDER BY c.ordinal_position`

// Schema returns the column list of an exposed table.
func (s *RecordStore) Schema(ctx context.Context, table string) (*TableSchema, error) {
	if !slices.Contains(s.tables, table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	rows, err := s.db.QueryContext(ctx, schemaQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	schema := &TableSchema{Table: table, Columns: []Column{}}
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		schema.Columns = append(schema.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	if len(schema.Columns) == 0 {
		// Listed in configuration but missing from the database.
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	return schema, nil
}

// Query returns unmasked rows as ordered mappings in column order.
// Table and filter columns are checked against the table schema and quoted
// as identifiers; filter values are always bound parameters.
func (s *RecordStore) Query(ctx context.Context, q Query) ([]masking.Value, error) {
	limit, err := s.resolveLimit(q.Limit)
	if err != nil {
		return nil, err
	}

	schema, err := s.Schema(ctx, q.Table)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(q.Filters))
	for col := range q.Filters {
		if !schema.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, q.Table, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var sb strings.Builder
	args := make([]any, 0, len(columns)+1)
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(pgx.Identifier{q.Table}.Sanitize())
	for i, col := range columns {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, q.Filters[col])
		fmt.Fprintf(&sb, "%s::text = $%d", pgx.Identifier{col}.Sanitize(), len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY 1 LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", q.Table, err)
	}

	slog.Debug("Queried records",
		"table", q.Table,
		"filters", len(columns),
		"limit", limit,
		"rows", len(records))

	return records, nil
}

func (s *RecordStore) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, NewValidationError("limit", "must not be negative")
	case limit == 0:
		return s.defaultLimit, nil
	case limit > s.maxLimit:
		return s.maxLimit, nil
	default:
		return limit, nil
	}
}

func scanRecords(rows *sql.Rows) ([]masking.Value, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	records := []masking.Value{}
	for rows.Next() {
		raw := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		fields := make([]masking.Field, len(colTypes))
		for i, ct := range colTypes {
			fields[i] = masking.Field{Key: ct.Name(), Value: columnValue(ct.DatabaseTypeName(), raw[i])}
		}
		records = append(records, masking.Mapping(fields...))
	}
	return records, rows.Err()
}

// columnValue converts a scanned driver value into a Value. DATE columns are
// rendered as YYYY-MM-DD rather than a midnight timestamp.
func columnValue(dbType string, v any) masking.Value {
	switch t := v.(type) {
	case nil:
		return masking.Null()
	case time.Time:
		if dbType == "DATE" {
			return masking.String(t.Format(time.DateOnly))
		}
		return masking.Scalar(t)
	case []byte:
		return masking.String(string(t))
	default:
		return masking.Scalar(t)
	}
}
