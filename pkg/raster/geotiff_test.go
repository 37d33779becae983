package raster

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

func testGrid() *models.Grid {
	grid := models.NewGrid(3, 4, models.Region{West: 100, East: 140, South: 200, North: 230})
	for r := 0; r < grid.NRows; r++ {
		for c := 0; c < grid.NCols; c++ {
			grid.Set(r, c, float64(r*10+c))
		}
	}
	return grid
}

func TestEncode_Georeferencing(t *testing.T) {
	grid := testGrid()
	data, err := Encode(grid, 31370)
	require.NoError(t, err)

	info, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, grid.NCols, info.Width)
	assert.Equal(t, grid.NRows, info.Height)
	assert.Equal(t, 31370, info.EPSG)
	assert.Equal(t, "nan", info.NoData)

	// Pixel (0,0) sits at the west/north corner of the region.
	assert.Equal(t, 100.0, info.Origin[0])
	assert.Equal(t, 230.0, info.Origin[1])

	// Pixel size is extent over pixel count (from_bounds convention).
	assert.InDelta(t, 40.0/4, info.PixelScale[0], 1e-12)
	assert.InDelta(t, 30.0/3, info.PixelScale[1], 1e-12)
}

func TestEncode_FlipsRows(t *testing.T) {
	grid := testGrid()
	data, err := Encode(grid, 31370)
	require.NoError(t, err)

	info, err := Decode(data)
	require.NoError(t, err)

	// Grid row 0 is the southern edge; in the file it is the last row.
	for c := 0; c < grid.NCols; c++ {
		assert.Equal(t, grid.Value(grid.NRows-1, c), info.Values[c])
		assert.Equal(t, grid.Value(0, c), info.Values[(info.Height-1)*info.Width+c])
	}
}

func TestEncode_NaNCellsSurvive(t *testing.T) {
	grid := testGrid()
	grid.Set(1, 2, math.NaN())

	data, err := Encode(grid, 31370)
	require.NoError(t, err)
	info, err := Decode(data)
	require.NoError(t, err)

	// Grid (1,2) lands in file row 1 (height 3, flipped).
	assert.True(t, math.IsNaN(info.Values[1*info.Width+2]))
}

func TestWriteGeoTIFF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tif")

	require.NoError(t, WriteGeoTIFF(path, testGrid(), 31370))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	info, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)
}

func TestWriteGeoTIFF_Errors(t *testing.T) {
	grid := testGrid()
	err := WriteGeoTIFF(filepath.Join(t.TempDir(), "missing", "out.tif"), grid, 31370)
	assert.Error(t, err, "unwritable destination must fail")

	empty := &models.Grid{NRows: 0, NCols: 0}
	assert.Error(t, WriteGeoTIFF(filepath.Join(t.TempDir(), "out.tif"), empty, 31370))

	assert.Error(t, WriteGeoTIFF(filepath.Join(t.TempDir(), "out.tif"), grid, 0))
}
