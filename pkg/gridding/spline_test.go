package gridding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

func latticeCloud(n int, spacing float64, value func(x, y float64) float64) *models.PointCloud {
	cloud := &models.PointCloud{}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x := float64(i) * spacing
			y := float64(j) * spacing
			cloud.Easting = append(cloud.Easting, x)
			cloud.Northing = append(cloud.Northing, y)
			cloud.Field = append(cloud.Field, value(x, y))
		}
	}
	return cloud
}

func TestSpline_InterpolatesDataPoints(t *testing.T) {
	cloud := latticeCloud(5, 10, func(x, y float64) float64 {
		return 3*x - 2*y + 7
	})

	s := NewSpline(0, 0)
	require.NoError(t, s.Fit(cloud))

	for i := 0; i < cloud.Len(); i++ {
		got := s.Predict(cloud.Easting[i], cloud.Northing[i])
		assert.InDelta(t, cloud.Field[i], got, 1e-2)
	}
}

func TestSpline_FlatFieldStaysFlat(t *testing.T) {
	const level = 100.0
	cloud := latticeCloud(6, 10, func(x, y float64) float64 { return level })

	s := NewSpline(0, 0)
	require.NoError(t, s.Fit(cloud))

	grid, err := s.Grid(context.Background(), cloud.Bounds(), 5)
	require.NoError(t, err)

	for r := 0; r < grid.NRows; r++ {
		for c := 0; c < grid.NCols; c++ {
			assert.InDelta(t, level, grid.Value(r, c), 2.0,
				"cell (%d,%d) drifted from the flat input", r, c)
		}
	}
}

func TestSpline_GridGeometry(t *testing.T) {
	cloud := latticeCloud(3, 5, func(x, y float64) float64 { return 1 })

	s := NewSpline(0, 1e-8)
	require.NoError(t, s.Fit(cloud))

	region := models.Region{West: 0, East: 10, South: 0, North: 10}
	grid, err := s.Grid(context.Background(), region, 1)
	require.NoError(t, err)

	assert.Equal(t, 11, grid.NCols)
	assert.Equal(t, 11, grid.NRows)

	e, n := grid.CellCenter(0, 0)
	assert.Equal(t, 0.0, e)
	assert.Equal(t, 0.0, n)
	e, n = grid.CellCenter(grid.NRows-1, grid.NCols-1)
	assert.InDelta(t, 10.0, e, 1e-12)
	assert.InDelta(t, 10.0, n, 1e-12)
}

func TestSpline_DampingSmooths(t *testing.T) {
	// One outlier in an otherwise flat field; damping should pull the
	// fit at the outlier toward the background.
	cloud := latticeCloud(5, 10, func(x, y float64) float64 { return 10 })
	cloud.Field[12] = 1000 // center point

	exact := NewSpline(0, 0)
	require.NoError(t, exact.Fit(cloud))

	damped := NewSpline(0, 1e8)
	require.NoError(t, damped.Fit(cloud))

	atOutlier := func(s *Spline) float64 {
		return s.Predict(cloud.Easting[12], cloud.Northing[12])
	}
	assert.Less(t, math.Abs(atOutlier(damped)-10), math.Abs(atOutlier(exact)-10)+1e-9)
	assert.Less(t, atOutlier(damped), atOutlier(exact))
}

func TestSpline_Errors(t *testing.T) {
	s := NewSpline(0, 0)
	assert.Error(t, s.Fit(&models.PointCloud{}))

	_, err := s.Grid(context.Background(), models.Region{East: 1, North: 1}, 1)
	assert.Error(t, err, "grid before fit must fail")

	cloud := latticeCloud(2, 1, func(x, y float64) float64 { return 1 })
	require.NoError(t, s.Fit(cloud))
	_, err = s.Grid(context.Background(), cloud.Bounds(), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Grid(ctx, cloud.Bounds(), 1)
	assert.Error(t, err)
}
