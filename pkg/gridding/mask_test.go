package gridding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

func TestDistanceMask(t *testing.T) {
	// A single data point in the middle of a 20x20 region.
	cloud := &models.PointCloud{
		Easting:  []float64{10},
		Northing: []float64{10},
		Field:    []float64{1},
	}

	region := models.Region{West: 0, East: 20, South: 0, North: 20}
	grid := models.NewGrid(21, 21, region)
	for i := range grid.Values {
		grid.Values[i] = 5
	}

	masked, err := DistanceMask(grid, cloud, 5)
	require.NoError(t, err)

	for r := 0; r < masked.NRows; r++ {
		for c := 0; c < masked.NCols; c++ {
			e, n := masked.CellCenter(r, c)
			dist := math.Hypot(e-10, n-10)
			if dist > 5 {
				assert.True(t, math.IsNaN(masked.Value(r, c)),
					"cell at distance %.1f should be masked", dist)
			} else {
				assert.Equal(t, 5.0, masked.Value(r, c),
					"cell at distance %.1f should survive", dist)
			}
		}
	}

	// The input grid is untouched.
	for _, v := range grid.Values {
		assert.False(t, math.IsNaN(v))
	}
}

func TestDistanceMask_Errors(t *testing.T) {
	grid := models.NewGrid(2, 2, models.Region{East: 1, North: 1})
	_, err := DistanceMask(grid, &models.PointCloud{}, 5)
	assert.Error(t, err)

	cloud := &models.PointCloud{Easting: []float64{0}, Northing: []float64{0}, Field: []float64{1}}
	_, err = DistanceMask(grid, cloud, -1)
	assert.Error(t, err)
}

func TestFillNaN(t *testing.T) {
	grid := models.NewGrid(2, 3, models.Region{East: 2, North: 1})
	copy(grid.Values, []float64{1, 2, math.NaN(), 3, math.NaN(), 100})

	filled, patched, err := FillNaN(grid)
	require.NoError(t, err)
	assert.Equal(t, 2, patched)

	// Median of {1, 2, 3, 100} is 2.5.
	assert.Equal(t, 2.5, filled.Values[2])
	assert.Equal(t, 2.5, filled.Values[4])
	assert.Equal(t, 1.0, filled.Values[0])

	// No NaNs in, none patched.
	again, patched, err := FillNaN(filled)
	require.NoError(t, err)
	assert.Equal(t, 0, patched)
	assert.Equal(t, filled.Values, again.Values)
}

func TestFillNaN_AllNaN(t *testing.T) {
	grid := models.NewGrid(2, 2, models.Region{East: 1, North: 1})
	_, _, err := FillNaN(grid)
	assert.Error(t, err)
}
