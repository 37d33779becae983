// Package gridding decimates scattered survey samples and interpolates
// them onto a regular grid. The chain is the classic equivalent-source
// workflow: median block reduction to tame flight-line oversampling,
// then a biharmonic (minimum curvature) spline evaluated on grid nodes,
// then a distance mask to cut off extrapolation far from the data.
package gridding

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// BlockReduce decimates the cloud to at most one point per spacing-sized
// spatial block. The output point for a block is the median of the
// input coordinates and the median of the input values, so the
// representative point follows the data rather than the block center.
// Blocks are emitted south-west first, so the result is deterministic.
func BlockReduce(cloud *models.PointCloud, spacing float64) (*models.PointCloud, error) {
	if spacing <= 0 {
		return nil, eris.Errorf("gridding: block spacing %g must be positive", spacing)
	}
	if cloud.Len() == 0 {
		return nil, eris.New("gridding: block reduce on empty point cloud")
	}

	bounds := cloud.Bounds()
	ncols := blockCount(bounds.Width(), spacing)
	nrows := blockCount(bounds.Height(), spacing)

	// Block index per point; points on the far edge fold into the
	// last block.
	blocks := make(map[int][]int)
	for i := range cloud.Easting {
		col := blockIndex(cloud.Easting[i], bounds.West, spacing, ncols)
		row := blockIndex(cloud.Northing[i], bounds.South, spacing, nrows)
		key := row*ncols + col
		blocks[key] = append(blocks[key], i)
	}

	keys := make([]int, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := &models.PointCloud{
		Easting:  make([]float64, 0, len(keys)),
		Northing: make([]float64, 0, len(keys)),
		Field:    make([]float64, 0, len(keys)),
	}
	for _, k := range keys {
		idx := blocks[k]
		out.Easting = append(out.Easting, medianOf(cloud.Easting, idx))
		out.Northing = append(out.Northing, medianOf(cloud.Northing, idx))
		out.Field = append(out.Field, medianOf(cloud.Field, idx))
	}

	return out, nil
}

func blockCount(extent, spacing float64) int {
	n := int(math.Ceil(extent / spacing))
	if n < 1 {
		n = 1
	}
	return n
}

func blockIndex(v, origin, spacing float64, count int) int {
	i := int(math.Floor((v - origin) / spacing))
	if i < 0 {
		i = 0
	}
	if i >= count {
		i = count - 1
	}
	return i
}

// medianOf returns the median of vals at the given indices, averaging
// the two middle elements on even counts.
func medianOf(vals []float64, idx []int) float64 {
	sel := make([]float64, len(idx))
	for i, j := range idx {
		sel[i] = vals[j]
	}
	sort.Float64s(sel)

	n := len(sel)
	if n%2 == 1 {
		return sel[n/2]
	}
	return (sel[n/2-1] + sel[n/2]) / 2
}
