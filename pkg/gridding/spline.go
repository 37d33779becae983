package gridding

import (
	"context"
	"math"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/hadrienmichel/MagDronePost/internal/models"
)

// Spline is a biharmonic (minimum curvature) interpolator for scattered
// 2-D data, after Sandwell (1987). The interpolated surface is a sum of
// point forces located at the data points, each contributing the
// biharmonic Green's function
//
//	g(r) = r² (ln r − 1)
//
// where r is the distance to the force plus a constant floor
// (MinDistance) that keeps the fit matrix away from the log singularity
// at r = 0. The force magnitudes are the least-squares solution of the
// damped normal equations
//
//	(GᵀG + damping·I) f = Gᵀ d
//
// so Damping acts as a ridge regularization: zero reproduces the data
// exactly, larger values trade misfit for smoothness.
type Spline struct {
	// MinDistance is added to every force-to-point distance, in the
	// same units as the coordinates (meters).
	MinDistance float64

	// Damping is the ridge regularization parameter.
	Damping float64

	// Workers bounds the goroutines used by Grid. Zero means one per
	// CPU.
	Workers int

	forceE []float64
	forceN []float64
	forces []float64
}

// NewSpline returns an unfitted spline with the given minimum distance
// and damping.
func NewSpline(minDistance, damping float64) *Spline {
	return &Spline{MinDistance: minDistance, Damping: damping}
}

// Fit estimates the point forces from the cloud. The forces sit at the
// data points themselves, giving a square Green's matrix.
func (s *Spline) Fit(cloud *models.PointCloud) error {
	n := cloud.Len()
	if n == 0 {
		return eris.New("gridding: spline fit on empty point cloud")
	}

	g := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := math.Hypot(cloud.Easting[i]-cloud.Easting[j], cloud.Northing[i]-cloud.Northing[j])
			g.Set(i, j, s.greens(r))
		}
	}

	d := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		d.SetVec(i, cloud.Field[i])
	}

	// Normal equations with ridge damping on the diagonal.
	gtg := mat.NewDense(n, n, nil)
	gtg.Mul(g.T(), g)
	for i := 0; i < n; i++ {
		gtg.Set(i, i, gtg.At(i, i)+s.Damping)
	}

	gtd := mat.NewVecDense(n, nil)
	gtd.MulVec(g.T(), d)

	forces := mat.NewVecDense(n, nil)
	if err := solve(forces, gtg, gtd); err != nil {
		return err
	}

	s.forceE = append([]float64(nil), cloud.Easting...)
	s.forceN = append([]float64(nil), cloud.Northing...)
	s.forces = make([]float64, n)
	for i := 0; i < n; i++ {
		s.forces[i] = forces.AtVec(i)
	}

	return nil
}

// solve factors a symmetric positive definite system with Cholesky and
// falls back to a QR least-squares solve when damping is too small to
// keep the matrix positive definite.
func solve(dst *mat.VecDense, a *mat.Dense, b *mat.VecDense) error {
	n, _ := a.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, a.At(i, j))
		}
	}

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		if err := chol.SolveVecTo(dst, b); err == nil {
			return nil
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	if err := qr.SolveVecTo(dst, false, b); err != nil {
		return eris.Wrap(err, "gridding: spline system could not be solved")
	}
	return nil
}

// Predict evaluates the fitted surface at a single point.
func (s *Spline) Predict(easting, northing float64) float64 {
	var v float64
	for j := range s.forces {
		r := math.Hypot(easting-s.forceE[j], northing-s.forceN[j])
		v += s.forces[j] * s.greens(r)
	}
	return v
}

// Grid evaluates the fitted surface on a regular grid of roughly the
// requested spacing over region. The node count is rounded so the
// region bounds are honored exactly; the effective spacing can differ
// slightly from the request. Rows are evaluated in parallel.
func (s *Spline) Grid(ctx context.Context, region models.Region, spacing float64) (*models.Grid, error) {
	if s.forces == nil {
		return nil, eris.New("gridding: spline grid before fit")
	}
	if spacing <= 0 {
		return nil, eris.Errorf("gridding: grid spacing %g must be positive", spacing)
	}

	ncols := nodeCount(region.Width(), spacing)
	nrows := nodeCount(region.Height(), spacing)
	grid := models.NewGrid(nrows, ncols, region)

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for r := 0; r < nrows; r++ {
		r := r
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "gridding: grid evaluation cancelled")
			}
			for c := 0; c < ncols; c++ {
				e, n := grid.CellCenter(r, c)
				grid.Set(r, c, s.Predict(e, n))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return grid, nil
}

func nodeCount(extent, spacing float64) int {
	n := int(math.Round(extent/spacing)) + 1
	if n < 2 {
		n = 2
	}
	return n
}

func (s *Spline) greens(r float64) float64 {
	d := r + s.MinDistance
	if d <= 0 {
		return 0
	}
	return d * d * (math.Log(d) - 1)
}
