package export

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

func TestPointShapefile_RoundTrip(t *testing.T) {
	cloud := &models.PointCloud{
		Easting:  []float64{230000, 230005, 230010},
		Northing: []float64{151000, 151005, 151010},
		Field:    []float64{12.5, -3.25, 0},
	}

	path := filepath.Join(t.TempDir(), "points.shp")
	require.NoError(t, PointShapefile(cloud, path))

	reader, err := shp.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	count := 0
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		require.True(t, ok)
		assert.Equal(t, cloud.Easting[count], point.X)
		assert.Equal(t, cloud.Northing[count], point.Y)
		count++
	}
	assert.Equal(t, cloud.Len(), count)
}

func TestPointShapefile_Empty(t *testing.T) {
	err := PointShapefile(&models.PointCloud{}, filepath.Join(t.TempDir(), "points.shp"))
	assert.Error(t, err)
}

func TestGridGeoTIFF(t *testing.T) {
	grid := models.NewGrid(2, 2, models.Region{East: 1, North: 1})
	for i := range grid.Values {
		grid.Values[i] = float64(i)
	}

	path := filepath.Join(t.TempDir(), "nested", "grid.tif")
	require.NoError(t, GridGeoTIFF(grid, 31370, path))
}
