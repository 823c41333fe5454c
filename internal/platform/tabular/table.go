// Package tabular reads named tables (worksheets, CSV files, database tables)
// as an ordered header plus rows of column name to cell value. It is the
// only place that knows where patient records and centile tables live.
package tabular

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTableNotFound is returned when a source has no table with the requested name.
var ErrTableNotFound = errors.New("table not found")

// Table is one named table. Columns keeps the header order; each record maps
// every column to its cell value (nil or "" for empty cells). Records keep
// the order in which the source stores them.
type Table struct {
	Name    string
	Columns []string
	Records []map[string]any
}

// Source supplies tables by name.
type Source interface {
	Table(ctx context.Context, name string) (*Table, error)
}

// BatchSource is implemented by sources that can read several tables in one
// round trip.
type BatchSource interface {
	Source
	Tables(ctx context.Context, names ...string) ([]*Table, error)
}

// Column reports whether the table has the named column.
func (t *Table) Column(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FromValues builds a table from a header row followed by data rows, the
// shape returned by spreadsheet and CSV readers. Header cells are trimmed;
// columns with a blank header are dropped. Short rows are padded with "".
// Rows that are entirely empty are skipped.
func FromValues(name string, values [][]any) (*Table, error) {
	t := &Table{Name: name}
	if len(values) == 0 {
		return t, nil
	}

	header := values[0]
	index := make([]int, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == nil {
			continue
		}
		col := strings.TrimSpace(fmt.Sprint(h))
		if col == "" {
			continue
		}
		if seen[col] {
			return nil, fmt.Errorf("table %q: duplicate column %q", name, col)
		}
		seen[col] = true
		t.Columns = append(t.Columns, col)
		index = append(index, i)
	}

	for _, row := range values[1:] {
		if blankRow(row) {
			continue
		}
		rec := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			i := index[j]
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func blankRow(row []any) bool {
	for _, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
