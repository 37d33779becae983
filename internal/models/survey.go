package models

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Sample is a single magnetometer reading at a projected coordinate.
type Sample struct {
	// Easting and Northing are projected coordinates in meters
	// (Belgian Lambert 72 for the original surveys, but any metric
	// projection works).
	Easting  float64
	Northing float64

	// Field is the total-field reading in nT. After anomaly
	// referencing this holds the anomaly rather than the raw reading.
	Field float64
}

// PointCloud is a set of survey samples in structure-of-arrays form,
// which is what the gridding routines consume.
type PointCloud struct {
	Easting  []float64
	Northing []float64
	Field    []float64
}

// Len returns the number of points in the cloud.
func (p *PointCloud) Len() int { return len(p.Field) }

// Bounds returns the tight bounding box of the cloud coordinates.
func (p *PointCloud) Bounds() Region {
	flat := make([]float64, 0, 2*len(p.Easting))
	for i := range p.Easting {
		flat = append(flat, p.Easting[i], p.Northing[i])
	}
	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()
	return Region{
		West:  b.Min(0),
		East:  b.Max(0),
		South: b.Min(1),
		North: b.Max(1),
	}
}

// Region is an axis-aligned bounding box in projected coordinates.
type Region struct {
	West  float64
	East  float64
	South float64
	North float64
}

// Pad returns the region grown by pad meters on every side.
func (r Region) Pad(pad float64) Region {
	return Region{
		West:  r.West - pad,
		East:  r.East + pad,
		South: r.South - pad,
		North: r.North + pad,
	}
}

// Width returns the east-west extent in meters.
func (r Region) Width() float64 { return r.East - r.West }

// Height returns the north-south extent in meters.
func (r Region) Height() float64 { return r.North - r.South }

// GeomagneticField holds the reference-model field parameters at the
// survey site on the acquisition date.
type GeomagneticField struct {
	// Inclination is the dip angle below horizontal, in degrees.
	Inclination float64

	// Declination is the angle from true north, in degrees.
	Declination float64

	// TotalIntensity is the ambient field strength in nT.
	TotalIntensity float64
}

// Grid is a regular raster of anomaly values over a region. Values are
// stored row-major with row 0 at the southern edge (geographic
// convention; the raster writer flips to image convention). NaN marks a
// masked cell.
type Grid struct {
	Values []float64
	NRows  int
	NCols  int
	Region Region
}

// NewGrid allocates a grid with every cell set to NaN.
func NewGrid(nrows, ncols int, region Region) *Grid {
	values := make([]float64, nrows*ncols)
	for i := range values {
		values[i] = math.NaN()
	}
	return &Grid{Values: values, NRows: nrows, NCols: ncols, Region: region}
}

// Value returns the cell value at row r, column c.
func (g *Grid) Value(r, c int) float64 { return g.Values[r*g.NCols+c] }

// Set assigns the cell value at row r, column c.
func (g *Grid) Set(r, c int, v float64) { g.Values[r*g.NCols+c] = v }

// DX returns the east-west node spacing.
func (g *Grid) DX() float64 {
	if g.NCols < 2 {
		return 0
	}
	return g.Region.Width() / float64(g.NCols-1)
}

// DY returns the north-south node spacing.
func (g *Grid) DY() float64 {
	if g.NRows < 2 {
		return 0
	}
	return g.Region.Height() / float64(g.NRows-1)
}

// CellCenter returns the projected coordinate of the node at row r,
// column c.
func (g *Grid) CellCenter(r, c int) (easting, northing float64) {
	return g.Region.West + float64(c)*g.DX(), g.Region.South + float64(r)*g.DY()
}

// Clone returns a deep copy sharing no storage with the receiver.
func (g *Grid) Clone() *Grid {
	values := make([]float64, len(g.Values))
	copy(values, g.Values)
	return &Grid{Values: values, NRows: g.NRows, NCols: g.NCols, Region: g.Region}
}
