package visualization

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

func TestRenderGrid_Palette(t *testing.T) {
	grid := models.NewGrid(1, 4, models.Region{East: 3})
	copy(grid.Values, []float64{-10, 0, 10, math.NaN()})

	img := RenderGrid(grid)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())

	// Full negative is blue, zero is white, full positive is red, NaN
	// is transparent.
	assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 255, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 0, A: 255}, img.NRGBAAt(2, 0))
	assert.Equal(t, uint8(0), img.NRGBAAt(3, 0).A)
}

func TestRenderGrid_FlipsRows(t *testing.T) {
	// Row 0 (south) positive, row 1 (north) negative: the northern row
	// must end up on top of the image.
	grid := models.NewGrid(2, 1, models.Region{East: 1, North: 1})
	grid.Set(0, 0, 5)
	grid.Set(1, 0, -5)

	img := RenderGrid(grid)
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).B, "top pixel should be the negative (blue) north row")
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 1).R, "bottom pixel should be the positive (red) south row")
}

func TestRenderGrid_AllMaskedOrFlat(t *testing.T) {
	grid := models.NewGrid(2, 2, models.Region{East: 1, North: 1})
	img := RenderGrid(grid)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, uint8(0), img.NRGBAAt(x, y).A)
		}
	}

	for i := range grid.Values {
		grid.Values[i] = 0
	}
	img = RenderGrid(grid)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(0, 0))
}

func TestSavePreview(t *testing.T) {
	grid := models.NewGrid(3, 3, models.Region{East: 2, North: 2})
	for i := range grid.Values {
		grid.Values[i] = float64(i) - 4
	}

	path := filepath.Join(t.TempDir(), "previews", "anomaly.png")
	require.NoError(t, SavePreview(grid, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
