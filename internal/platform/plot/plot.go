// Package plot renders reference-curve charts with a single highlighted
// measurement on top, using go-chart. Output is deterministic for a given
// Spec and Options, so rendered PNGs can be compared byte for byte.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LineStyle selects how reference curves are stroked.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
)

func (s LineStyle) String() string {
	if s == Dashed {
		return "dashed"
	}
	return "solid"
}

// Curve is one reference line.
type Curve struct {
	Label string
	X     []float64
	Y     []float64
}

// Marker is the highlighted measurement.
type Marker struct {
	Label string
	X     float64
	Y     float64
}

// Spec describes everything drawn on a chart.
type Spec struct {
	Title     string
	XLabel    string
	YLabel    string
	Curves    []Curve
	LineStyle LineStyle
	Marker    Marker
}

// Options controls the canvas.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns a 1000x600 canvas.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 600}
}

var (
	ErrNoCurves      = errors.New("no reference curves to draw")
	ErrInvalidMarker = errors.New("marker coordinates must be finite")
)

const (
	curveAlpha       uint8 = 153 // 60% opacity
	curveStrokeWidth       = 2.0
	titleFontSize          = 14.0
	axisNameFontSize       = 12.0
)

var dashArray = []float64{6, 4}

var gridStyle = chart.Style{
	StrokeColor:     drawing.ColorFromHex("cccccc"),
	StrokeWidth:     1,
	StrokeDashArray: []float64{4, 4},
}

// Composer turns a Spec into a Figure.
type Composer struct {
	opts Options
}

// NewComposer returns a Composer. Zero dimensions fall back to the defaults.
func NewComposer(opts Options) *Composer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	return &Composer{opts: opts}
}

// Figure is a composed, not yet rendered chart.
type Figure struct {
	graph  chart.Chart
	legend []LegendEntry
}

// Legend returns the legend entries in drawing order.
func (f *Figure) Legend() []LegendEntry {
	return f.legend
}

// Render writes the chart as PNG.
func (f *Figure) Render(w io.Writer) error {
	if err := f.graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Compose builds one series per curve, colored from a palette sized to the
// number of curves, and the marker series last so it is drawn above them.
// Non-finite points are left out of their curve; a curve left with no
// points is an error.
func (c *Composer) Compose(spec Spec) (*Figure, error) {
	if len(spec.Curves) == 0 {
		return nil, ErrNoCurves
	}
	if !finite(spec.Marker.X) || !finite(spec.Marker.Y) {
		return nil, ErrInvalidMarker
	}

	var dash []float64
	if spec.LineStyle == Dashed {
		dash = dashArray
	}

	colors := Palette(len(spec.Curves))
	series := make([]chart.Series, 0, len(spec.Curves)+1)
	entries := make([]LegendEntry, 0, len(spec.Curves)+1)

	for i, cv := range spec.Curves {
		xs, ys := finitePoints(cv.X, cv.Y)
		if len(xs) == 0 {
			return nil, fmt.Errorf("curve %q has no plottable points", cv.Label)
		}
		color := colors[i].WithAlpha(curveAlpha)
		series = append(series, chart.ContinuousSeries{
			Name:    cv.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor:     color,
				StrokeWidth:     curveStrokeWidth,
				StrokeDashArray: dash,
			},
		})
		entries = append(entries, LegendEntry{Label: cv.Label, Color: color, Dashed: spec.LineStyle == Dashed})
	}

	series = append(series, newMarkerSeries(spec.Marker))
	entries = append(entries, LegendEntry{Label: spec.Marker.Label, Color: markerFill, Marker: true})

	graph := chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontSize: titleFontSize},
		Width:      c.opts.Width,
		Height:     c.opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: legendGutter, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           spec.XLabel,
			NameStyle:      chart.Style{FontSize: axisNameFontSize},
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Name:           spec.YLabel,
			NameStyle:      chart.Style{FontSize: axisNameFontSize},
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{legend(entries)}

	return &Figure{graph: graph, legend: entries}, nil
}

func finitePoints(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
