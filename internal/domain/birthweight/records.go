package birthweight

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errNotNumeric = errors.New("not a number")

// FilterRows keeps, in order, the rows whose required fields are all present
// and non-blank once converted to text and trimmed. A missing key counts as
// blank.
func FilterRows(rows []map[string]any, cols Columns) []RawRow {
	required := cols.required()
	out := make([]RawRow, 0, len(rows))
	for i, row := range rows {
		if hasFields(row, required) {
			out = append(out, RawRow{Row: i + 1, Fields: row})
		}
	}
	return out
}

func hasFields(row map[string]any, fields []string) bool {
	for _, f := range fields {
		v, ok := row[f]
		if !ok || cellText(v) == "" {
			return false
		}
	}
	return true
}

// cellText renders a cell the way it reads in the sheet. Whole floats print
// without a fraction; nil and NaN are blank.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(x)) {
			return ""
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []byte:
		return strings.TrimSpace(string(x))
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// SelectLatest returns the last row, the most recent entry in an
// append-only sheet.
func SelectLatest(rows []RawRow) (RawRow, error) {
	if len(rows) == 0 {
		return RawRow{}, ErrNoValidData
	}
	return rows[len(rows)-1], nil
}

// ParseRecord types a filtered row. Numbers may be numeric cells or text
// with thousands separators.
func ParseRecord(row RawRow, cols Columns) (PatientRecord, error) {
	rec := PatientRecord{Row: row.Row, Sex: cellText(row.Fields[cols.Sex])}

	var err error
	if rec.BirthweightGrams, err = parseNumber(row.Fields[cols.Birthweight]); err != nil {
		return PatientRecord{}, fmt.Errorf("%w: row %d: %s %q: %v", ErrInvalidRecord, row.Row, cols.Birthweight, cellText(row.Fields[cols.Birthweight]), err)
	}
	if rec.GestationDays, err = parseNumber(row.Fields[cols.Gestation]); err != nil {
		return PatientRecord{}, fmt.Errorf("%w: row %d: %s %q: %v", ErrInvalidRecord, row.Row, cols.Gestation, cellText(row.Fields[cols.Gestation]), err)
	}
	return rec, nil
}

func parseNumber(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return 0, errNotNumeric
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, errNotNumeric
		}
	default:
		return 0, errNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}

// NormalizeSex trims s and capitalizes it: first letter upper case, the
// rest lower case.
func NormalizeSex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ResolveCategory maps a sex value to Male or Female. Every other value,
// blank included, is ErrUnsupportedCategory.
func ResolveCategory(sex string) (Category, error) {
	switch c := Category(NormalizeSex(sex)); c {
	case Male, Female:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCategory, strings.TrimSpace(sex))
	}
}

// Measure derives the chart point for rec.
func Measure(rec PatientRecord) (SelectedMeasurement, error) {
	cat, err := ResolveCategory(rec.Sex)
	if err != nil {
		return SelectedMeasurement{}, err
	}
	return SelectedMeasurement{
		Row:                 rec.Row,
		GestationalAgeWeeks: rec.GestationDays / 7,
		BirthweightGrams:    rec.BirthweightGrams,
		Category:            cat,
		LineStyle:           cat.LineStyle(),
	}, nil
}
