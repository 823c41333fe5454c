package tabular

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/ehr/centile/internal/platform/google"
)

// unformattedValue makes the Sheets API return numbers as JSON numbers
// instead of display strings such as "3,200".
const unformattedValue = "UNFORMATTED_VALUE"

// SheetsSource reads worksheets of one spreadsheet. Each worksheet is a
// table whose first row is the header.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsSource returns a source over the spreadsheet with the given ID.
func NewSheetsSource(svc *sheets.Service, spreadsheetID string) *SheetsSource {
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}
}

// Table reads a whole worksheet.
func (s *SheetsSource) Table(ctx context.Context, name string) (*Table, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetRange(name)).
		ValueRenderOption(unformattedValue).
		Context(ctx).
		Do()
	if err != nil {
		return nil, sheetError(name, err)
	}
	return FromValues(name, resp.Values)
}

// Tables reads several worksheets with a single batchGet call.
func (s *SheetsSource) Tables(ctx context.Context, names ...string) ([]*Table, error) {
	ranges := make([]string, len(names))
	for i, n := range names {
		ranges[i] = sheetRange(n)
	}
	resp, err := s.svc.Spreadsheets.Values.BatchGet(s.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption(unformattedValue).
		Context(ctx).
		Do()
	if err != nil {
		return nil, sheetError(strings.Join(names, ", "), err)
	}
	if len(resp.ValueRanges) != len(names) {
		return nil, fmt.Errorf("read sheets: got %d ranges, want %d", len(resp.ValueRanges), len(names))
	}

	tables := make([]*Table, len(names))
	for i, vr := range resp.ValueRanges {
		t, err := FromValues(names[i], vr.Values)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return tables, nil
}

// sheetRange quotes a worksheet title for A1 notation; "Boy's Centile"
// becomes 'Boy''s Centile'.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func sheetError(name string, err error) error {
	if google.IsNotFound(err) {
		return fmt.Errorf("read sheet %q: %w", name, ErrTableNotFound)
	}
	return fmt.Errorf("read sheet %q: %w", name, google.WrapError(err))
}
