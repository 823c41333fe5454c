package tabular

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads whole tables from PostgreSQL. Rows are returned in
// the order of the table's first column, which is expected to be an entry
// sequence for patient records and the gestational age for centile tables.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource returns a source backed by db.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// Table selects every row of the named table.
func (s *PostgresSource) Table(ctx context.Context, name string) (*Table, error) {
	query := "SELECT * FROM " + pgx.Identifier{name}.Sanitize() + " ORDER BY 1"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, tableError(name, err)
	}
	defer rows.Close()

	t := &Table{Name: name}
	for _, fd := range rows.FieldDescriptions() {
		t.Columns = append(t.Columns, fd.Name)
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan table %q: %w", name, err)
		}
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			rec[col] = cellValue(vals[i])
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, tableError(name, err)
	}
	return t, nil
}

// cellValue converts pgx numeric types to float64 so downstream parsing only
// has to handle Go scalars.
func cellValue(v any) any {
	switch n := v.(type) {
	case pgtype.Numeric:
		if !n.Valid {
			return nil
		}
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return v
	}
}

func tableError(name string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("query table %q: %w", name, ErrTableNotFound)
	}
	return fmt.Errorf("query table %q: %w", name, err)
}
