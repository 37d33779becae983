// Package rtp applies the reduction-to-pole transform to a gridded
// total-field magnetic anomaly. The transform re-projects the anomaly
// as if both the ambient field and the (induced) magnetization pointed
// straight down, which centers anomalies over their sources and removes
// the skew that mid-latitude inclination and declination introduce.
//
// The operator works in the wavenumber domain (Blakely, 1996). With
// direction cosines (fe, fn, fz) of the field,
//
//	Θ(kx, ky) = i(kx·fe + ky·fn) + |k|·fz
//
// the pole-reduced spectrum is the observed spectrum multiplied by
// |k|²/Θ². The zero-wavenumber coefficient is passed through unchanged,
// preserving the grid mean.
package rtp

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// Apply reduces the gridded anomaly to the pole using the site
// inclination and declination in degrees. The grid must be NaN-free
// (see gridding.FillNaN); the output has the same shape and region.
func Apply(grid *models.Grid, field models.GeomagneticField) (*models.Grid, error) {
	if grid.NRows < 2 || grid.NCols < 2 {
		return nil, eris.Errorf("rtp: grid %dx%d is too small to transform", grid.NRows, grid.NCols)
	}
	for _, v := range grid.Values {
		if math.IsNaN(v) {
			return nil, eris.New("rtp: grid contains NaN values, fill them first")
		}
	}

	inc := field.Inclination * math.Pi / 180
	dec := field.Declination * math.Pi / 180
	fe := math.Cos(inc) * math.Sin(dec)
	fn := math.Cos(inc) * math.Cos(dec)
	fz := math.Sin(inc)

	coeffs := fft2(grid.Values, grid.NRows, grid.NCols)
	kx := waveNumbers(grid.NCols, grid.DX())
	ky := waveNumbers(grid.NRows, grid.DY())

	for r := 0; r < grid.NRows; r++ {
		for c := 0; c < grid.NCols; c++ {
			k := math.Hypot(kx[c], ky[r])
			if k == 0 {
				continue
			}
			theta := complex(k*fz, kx[c]*fe+ky[r]*fn)
			coeffs[r*grid.NCols+c] *= complex(k*k, 0) / (theta * theta)
		}
	}

	out := grid.Clone()
	out.Values = ifft2(coeffs, grid.NRows, grid.NCols)
	return out, nil
}
