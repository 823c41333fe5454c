package tabular

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ehr/centile/internal/platform/google"
)

func newTestSheets(t *testing.T, handler http.HandlerFunc) *SheetsSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewSheetsSource(svc, "sheet-123")
}

func TestSheetsSource_Table(t *testing.T) {
	var gotPath, gotRender string
	src := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"range": "Calculator!A1:C3",
			"majorDimension": "ROWS",
			"values": [
				["Fetal Sex (Male, Female or Unknown)", "Birthweight (grams)", "Gestation (days)"],
				["Male", 3200, 280]
			]
		}`)
	})

	tbl, err := src.Table(context.Background(), "Calculator")
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/v4/spreadsheets/sheet-123/values/")
	assert.Contains(t, gotPath, "'Calculator'")
	assert.Equal(t, unformattedValue, gotRender)
	require.Len(t, tbl.Records, 1)
	assert.Equal(t, "Male", tbl.Records[0]["Fetal Sex (Male, Female or Unknown)"])
	assert.Equal(t, 3200.0, tbl.Records[0]["Birthweight (grams)"])
}

func TestSheetsSource_Tables(t *testing.T) {
	var ranges []string
	src := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "values:batchGet") {
			http.NotFound(w, r)
			return
		}
		ranges = r.URL.Query()["ranges"]
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"spreadsheetId": "sheet-123",
			"valueRanges": [
				{"values": [["Fetal Sex (Male, Female or Unknown)"], ["Female"]]},
				{"values": [["Gestational Age", "50th"], [40, 3500]]}
			]
		}`)
	})

	tables, err := src.Tables(context.Background(), "Calculator", "Boy's Centile")
	require.NoError(t, err)

	assert.Equal(t, []string{"'Calculator'", "'Boy''s Centile'"}, ranges)
	require.Len(t, tables, 2)
	assert.Equal(t, "Calculator", tables[0].Name)
	assert.Equal(t, "Boy's Centile", tables[1].Name)
	assert.Equal(t, 3500.0, tables[1].Records[0]["50th"])
}

func TestSheetsSource_UnknownWorksheet(t *testing.T) {
	src := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"code": 400, "message": "Unable to parse range: 'Missing'", "status": "INVALID_ARGUMENT"}}`)
	})

	_, err := src.Table(context.Background(), "Missing")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestSheetsSource_Forbidden(t *testing.T) {
	src := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"}}`)
	})

	_, err := src.Table(context.Background(), "Calculator")
	assert.True(t, errors.Is(err, google.ErrForbidden))
	assert.Contains(t, err.Error(), "The caller does not have permission")
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Calculator'", sheetRange("Calculator"))
	assert.Equal(t, "'Girl''s Centile'", sheetRange("Girl's Centile"))
}
