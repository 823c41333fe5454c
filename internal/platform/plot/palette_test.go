package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestPalette_Size(t *testing.T) {
	for _, n := range []int{1, 3, 5, 9} {
		assert.Len(t, Palette(n), n)
	}
	assert.Empty(t, Palette(0))
}

func TestPalette_DistinctAndOpaque(t *testing.T) {
	colors := Palette(7)
	seen := map[drawing.Color]bool{}
	for _, c := range colors {
		assert.Equal(t, uint8(255), c.A)
		assert.False(t, seen[c], "duplicate color %v", c)
		seen[c] = true
	}
}

func TestPalette_Deterministic(t *testing.T) {
	assert.Equal(t, Palette(5), Palette(5))
}
