package gridding

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// point2 is a projected coordinate stored in the mask KD-tree.
type point2 struct {
	E, N float64
}

// Compare implements kdtree.Comparable.
func (p point2) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point2)
	switch d {
	case 0:
		return p.E - q.E
	case 1:
		return p.N - q.N
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p point2) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points.
func (p point2) Distance(c kdtree.Comparable) float64 {
	q := c.(point2)
	de := p.E - q.E
	dn := p.N - q.N
	return de*de + dn*dn
}

// points2 is a collection of point2 that satisfies kdtree.Interface.
type points2 []point2

func (p points2) Index(i int) kdtree.Comparable         { return p[i] }
func (p points2) Len() int                              { return len(p) }
func (p points2) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p points2) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{points2: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{points2: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for points2.
type pointPlane struct {
	points2
	kdtree.Dim
}

var _ sort.Interface = pointPlane{}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.points2[i].E < p.points2[j].E
	case 1:
		return p.points2[i].N < p.points2[j].N
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{points2: p.points2[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.points2[i], p.points2[j] = p.points2[j], p.points2[i]
}

// DistanceMask returns a copy of grid with every node farther than
// maxdist from the nearest cloud point set to NaN. The mask keeps the
// spline from being trusted where it is pure extrapolation.
func DistanceMask(grid *models.Grid, cloud *models.PointCloud, maxdist float64) (*models.Grid, error) {
	if cloud.Len() == 0 {
		return nil, eris.New("gridding: distance mask with empty point cloud")
	}
	if maxdist < 0 {
		return nil, eris.Errorf("gridding: mask distance %g must not be negative", maxdist)
	}

	pts := make(points2, cloud.Len())
	for i := range pts {
		pts[i] = point2{E: cloud.Easting[i], N: cloud.Northing[i]}
	}
	tree := kdtree.New(pts, false)

	maxSq := maxdist * maxdist
	out := grid.Clone()
	for r := 0; r < grid.NRows; r++ {
		for c := 0; c < grid.NCols; c++ {
			e, n := grid.CellCenter(r, c)
			_, distSq := tree.Nearest(point2{E: e, N: n})
			if distSq > maxSq {
				out.Set(r, c, math.NaN())
			}
		}
	}

	return out, nil
}

// FillNaN returns a copy of grid with NaN cells replaced by the median
// of the finite cells, and the number of cells filled. The harmonic
// pole-reduction operator cannot digest NaNs, so the full (unmasked)
// grid is patched this way before the transform; an all-NaN grid has no
// median to offer and is an error.
func FillNaN(grid *models.Grid) (*models.Grid, int, error) {
	finite := make([]float64, 0, len(grid.Values))
	for _, v := range grid.Values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, 0, eris.New("gridding: grid is all NaN, nothing to fill with")
	}

	sort.Float64s(finite)
	median := finite[len(finite)/2]
	if len(finite)%2 == 0 {
		median = (finite[len(finite)/2-1] + finite[len(finite)/2]) / 2
	}

	out := grid.Clone()
	filled := 0
	for i, v := range out.Values {
		if math.IsNaN(v) {
			out.Values[i] = median
			filled++
		}
	}

	return out, filled, nil
}
