// Package visualization renders anomaly grids as PNG previews, the
// quick-look companion to the GeoTIFF outputs.
package visualization

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// RenderGrid maps the grid onto a diverging blue-white-red image,
// scaled symmetrically around zero so positive and negative anomalies
// get equal visual weight. Masked (NaN) cells come out transparent.
// Row 0 of the grid is the southern edge, so rows are flipped into
// image convention.
func RenderGrid(grid *models.Grid) *image.NRGBA {
	limit := 0.0
	for _, v := range grid.Values {
		if !math.IsNaN(v) && math.Abs(v) > limit {
			limit = math.Abs(v)
		}
	}
	if limit == 0 {
		limit = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, grid.NCols, grid.NRows))
	for r := 0; r < grid.NRows; r++ {
		y := grid.NRows - 1 - r
		for c := 0; c < grid.NCols; c++ {
			v := grid.Value(r, c)
			if math.IsNaN(v) {
				img.SetNRGBA(c, y, color.NRGBA{})
				continue
			}
			img.SetNRGBA(c, y, diverging(v/limit))
		}
	}
	return img
}

// SavePreview renders the grid and writes it as a PNG.
func SavePreview(grid *models.Grid, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "visualization: create preview directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "visualization: create preview file")
	}
	defer f.Close()

	if err := png.Encode(f, RenderGrid(grid)); err != nil {
		return eris.Wrap(err, "visualization: encode preview")
	}
	return nil
}

// diverging maps t in [-1, 1] to blue (negative) through white (zero)
// to red (positive).
func diverging(t float64) color.NRGBA {
	if t < -1 {
		t = -1
	}
	if t > 1 {
		t = 1
	}

	if t < 0 {
		f := 1 + t // 0 at full blue, 1 at white
		return color.NRGBA{
			R: uint8(255 * f),
			G: uint8(255 * f),
			B: 255,
			A: 255,
		}
	}
	f := 1 - t // 1 at white, 0 at full red
	return color.NRGBA{
		R: 255,
		G: uint8(255 * f),
		B: uint8(255 * f),
		A: 255,
	}
}
