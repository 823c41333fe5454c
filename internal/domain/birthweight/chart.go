package birthweight

import (
	"fmt"

	"github.com/ehr/centile/internal/platform/plot"
)

const (
	xAxisLabel = "Gestational Age (weeks)"
	yAxisLabel = "Birthweight (grams)"
)

// BuildPlot lays out one curve per percentile column and the measurement
// marker.
func BuildPlot(m SelectedMeasurement, ref *ReferenceCurveSet) plot.Spec {
	curves := make([]plot.Curve, len(ref.Percentiles))
	for i, col := range ref.Percentiles {
		curves[i] = plot.Curve{
			Label: fmt.Sprintf("%s Percentile", col),
			X:     ref.AxisValues,
			Y:     ref.Values[i],
		}
	}
	return plot.Spec{
		Title:     fmt.Sprintf("%s's Birthweight vs. Gestational Age", m.Category),
		XLabel:    xAxisLabel,
		YLabel:    yAxisLabel,
		Curves:    curves,
		LineStyle: m.LineStyle,
		Marker: plot.Marker{
			Label: fmt.Sprintf("%s Birthweight", m.Category),
			X:     m.GestationalAgeWeeks,
			Y:     m.BirthweightGrams,
		},
	}
}
