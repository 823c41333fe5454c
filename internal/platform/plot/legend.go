package plot

import (
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LegendEntry is one row of the legend.
type LegendEntry struct {
	Label  string
	Color  drawing.Color
	Dashed bool
	Marker bool
}

// The legend sits in a gutter left of the plot area so it never covers data.
const (
	legendMargin   = 12
	legendWidth    = 170
	legendGutter   = legendWidth + 2*legendMargin
	legendPadding  = 8
	legendRowGap   = 6
	legendSwatch   = 24
	legendFontSize = 9.0
)

var legendBorder = drawing.ColorFromHex("bbbbbb")

func legend(entries []LegendEntry) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		if len(entries) == 0 {
			return
		}

		r.SetFont(defaults.GetFont())
		r.SetFontSize(legendFontSize)
		r.SetFontColor(chart.ColorBlack)

		textHeight := r.MeasureText("Hg").Height()
		rowHeight := textHeight + legendRowGap
		left := legendMargin
		top := canvasBox.Top
		right := left + legendWidth
		bottom := top + 2*legendPadding + rowHeight*len(entries) - legendRowGap

		r.SetStrokeDashArray(nil)
		r.SetFillColor(chart.ColorWhite)
		r.SetStrokeColor(legendBorder)
		r.SetStrokeWidth(1)
		r.MoveTo(left, top)
		r.LineTo(right, top)
		r.LineTo(right, bottom)
		r.LineTo(left, bottom)
		r.LineTo(left, top)
		r.Close()
		r.FillStroke()

		for i, e := range entries {
			mid := top + legendPadding + i*rowHeight + textHeight/2
			x := left + legendPadding

			if e.Marker {
				r.SetStrokeDashArray(nil)
				r.SetFillColor(markerFill)
				r.SetStrokeColor(markerStroke)
				r.SetStrokeWidth(markerStrokeWidth)
				r.Circle(markerRadius*0.7, x+legendSwatch/2, mid)
				r.FillStroke()
			} else {
				if e.Dashed {
					r.SetStrokeDashArray(dashArray)
				} else {
					r.SetStrokeDashArray(nil)
				}
				r.SetStrokeColor(e.Color)
				r.SetStrokeWidth(curveStrokeWidth)
				r.MoveTo(x, mid)
				r.LineTo(x+legendSwatch, mid)
				r.Stroke()
			}

			r.SetFontColor(chart.ColorBlack)
			r.Text(e.Label, x+legendSwatch+6, mid+textHeight/2)
		}
	}
}
