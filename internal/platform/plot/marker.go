package plot

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	markerRadius      = 8.0
	markerStrokeWidth = 2.0
)

var (
	markerFill   = drawing.ColorBlack
	markerStroke = drawing.ColorWhite
)

// markerSeries draws a single filled, outlined dot. It implements
// chart.ValuesProvider so the point is included in the axis ranges.
type markerSeries struct {
	name string
	x, y float64
}

func newMarkerSeries(m Marker) markerSeries {
	return markerSeries{name: m.Label, x: m.X, y: m.Y}
}

func (m markerSeries) GetName() string { return m.name }

func (m markerSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (m markerSeries) GetStyle() chart.Style {
	return chart.Style{
		StrokeColor: markerStroke,
		StrokeWidth: markerStrokeWidth,
		FillColor:   markerFill,
		DotColor:    markerFill,
		DotWidth:    markerRadius,
	}
}

func (m markerSeries) Len() int { return 1 }

func (m markerSeries) GetValues(int) (float64, float64) { return m.x, m.y }

func (m markerSeries) Validate() error {
	if !finite(m.x) || !finite(m.y) {
		return fmt.Errorf("marker %q: %w", m.name, ErrInvalidMarker)
	}
	return nil
}

func (m markerSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	cx := canvasBox.Left + xrange.Translate(m.x)
	cy := canvasBox.Bottom - yrange.Translate(m.y)

	r.SetStrokeDashArray(nil)
	r.SetFillColor(markerFill)
	r.SetStrokeColor(markerStroke)
	r.SetStrokeWidth(markerStrokeWidth)
	r.Circle(markerRadius, cx, cy)
	r.FillStroke()
}
