package plot

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// HSLuv palette parameters. Hues are evenly spaced starting just past red;
// saturation and lightness are fixed so neighbouring curves differ in hue only.
const (
	paletteHueOffset  = 0.01
	paletteSaturation = 0.9 * 0.99
	paletteLightness  = 0.65 * 0.99
)

// Palette returns n perceptually distinct, fully opaque colors.
func Palette(n int) []drawing.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]drawing.Color, n)
	for i := range colors {
		hue := math.Mod(float64(i)/float64(n)+paletteHueOffset, 1) * 359
		r, g, b := colorful.HSLuv(hue, paletteSaturation, paletteLightness).Clamped().RGB255()
		colors[i] = drawing.Color{R: r, G: g, B: b, A: 255}
	}
	return colors
}
