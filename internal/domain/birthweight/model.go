// Package birthweight picks the latest valid birthweight measurement from the
// patient table and charts it against the centile curves for the baby's sex.
package birthweight

import (
	"errors"
	"fmt"
	"math"

	"github.com/ehr/centile/internal/platform/plot"
	"github.com/ehr/centile/internal/platform/tabular"
)

var (
	// ErrNoValidData means no patient row had every required field.
	ErrNoValidData = errors.New("no valid patient data")
	// ErrUnsupportedCategory means the latest row's sex is neither Male nor Female.
	ErrUnsupportedCategory = errors.New("unsupported category")
	// ErrInvalidRecord means a required numeric field could not be parsed.
	ErrInvalidRecord = errors.New("invalid patient record")
)

// Category selects the centile table and the line style of its curves.
type Category string

const (
	Male   Category = "Male"
	Female Category = "Female"
)

// LineStyle is dashed for Male and solid for Female.
func (c Category) LineStyle() plot.LineStyle {
	if c == Male {
		return plot.Dashed
	}
	return plot.Solid
}

// Columns names the fields read from the patient and centile tables.
type Columns struct {
	Sex         string
	Birthweight string
	Gestation   string
	Axis        string
}

func DefaultColumns() Columns {
	return Columns{
		Sex:         "Fetal Sex (Male, Female or Unknown)",
		Birthweight: "Birthweight (grams)",
		Gestation:   "Gestation (days)",
		Axis:        "Gestational Age",
	}
}

func (c Columns) required() []string {
	return []string{c.Sex, c.Birthweight, c.Gestation}
}

// Tables names the patient table and the centile table of each category.
type Tables struct {
	Patient string
	Male    string
	Female  string
}

func DefaultTables() Tables {
	return Tables{Patient: "Calculator", Male: "Boy's Centile", Female: "Girl's Centile"}
}

// RawRow is an untyped patient row that passed the filter. Row is its
// 1-based position among the table's data rows.
type RawRow struct {
	Row    int
	Fields map[string]any
}

// PatientRecord is a typed patient row.
type PatientRecord struct {
	Row              int
	Sex              string
	BirthweightGrams float64
	GestationDays    float64
}

// SelectedMeasurement is the point that gets highlighted on the chart.
type SelectedMeasurement struct {
	Row                 int
	GestationalAgeWeeks float64
	BirthweightGrams    float64
	Category            Category
	LineStyle           plot.LineStyle
}

// ReferenceCurveSet holds one centile table: the axis values and, for every
// other column in header order, one value per axis row. Cells that are not
// numeric are stored as NaN.
type ReferenceCurveSet struct {
	Axis        string
	Percentiles []string
	AxisValues  []float64
	Values      [][]float64
}

// NewReferenceCurveSet reads t using axis as the x column.
func NewReferenceCurveSet(t *tabular.Table, axis string) (*ReferenceCurveSet, error) {
	if !t.Column(axis) {
		return nil, fmt.Errorf("centile table %q: missing axis column %q", t.Name, axis)
	}

	ref := &ReferenceCurveSet{Axis: axis}
	for _, col := range t.Columns {
		if col != axis {
			ref.Percentiles = append(ref.Percentiles, col)
		}
	}
	if len(ref.Percentiles) == 0 {
		return nil, fmt.Errorf("centile table %q: no percentile columns", t.Name)
	}

	ref.AxisValues = make([]float64, len(t.Records))
	ref.Values = make([][]float64, len(ref.Percentiles))
	for i := range ref.Values {
		ref.Values[i] = make([]float64, len(t.Records))
	}
	for r, rec := range t.Records {
		ref.AxisValues[r] = numericOrNaN(rec[axis])
		for i, col := range ref.Percentiles {
			ref.Values[i][r] = numericOrNaN(rec[col])
		}
	}
	return ref, nil
}

func numericOrNaN(v any) float64 {
	f, err := parseNumber(v)
	if err != nil {
		return math.NaN()
	}
	return f
}
