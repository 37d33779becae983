// Package pipeline orchestrates the survey post-processing chain: load
// the pre-processed magnetometry CSV, resolve the site's geomagnetic
// reference field, decimate and grid the anomaly, reduce it to the
// pole, and write the result as a GeoTIFF. Stages run strictly in
// sequence and the first error aborts the run before anything is
// written.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/internal/export"
	"github.com/hadrienmichel/MagDronePost/internal/geomag"
	"github.com/hadrienmichel/MagDronePost/internal/models"
	"github.com/hadrienmichel/MagDronePost/internal/survey"
	"github.com/hadrienmichel/MagDronePost/pkg/config"
	"github.com/hadrienmichel/MagDronePost/pkg/gridding"
	"github.com/hadrienmichel/MagDronePost/pkg/raster"
	"github.com/hadrienmichel/MagDronePost/pkg/rtp"
	"github.com/hadrienmichel/MagDronePost/pkg/visualization"
)

// Pipeline runs the post-processing chain for one survey.
type Pipeline struct {
	cfg        *config.Config
	calculator geomag.Calculator
	logger     *zap.Logger
}

// Result exposes the intermediate and final products of a run.
type Result struct {
	// Field holds the geomagnetic reference parameters used.
	Field models.GeomagneticField

	// Samples is the number of usable input samples.
	Samples int

	// Decimated is the block-reduced point cloud.
	Decimated *models.PointCloud

	// Gridded is the masked, interpolated anomaly grid.
	Gridded *models.Grid

	// Reduced is the masked pole-reduced grid written to the raster.
	Reduced *models.Grid

	// RasterPath is where the final GeoTIFF was written.
	RasterPath string
}

// New assembles a pipeline from the configuration.
func New(cfg *config.Config, calculator geomag.Calculator, logger *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, calculator: calculator, logger: logger}
}

// Run executes the full chain. Each stage feeds the next; there is no
// retry and no partial output on failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	cloud, err := survey.LoadFile(p.cfg.Input.Path, survey.Options{
		Delimiter:   []rune(p.cfg.Input.Delimiter)[0],
		XColumn:     p.cfg.Input.XColumn,
		YColumn:     p.cfg.Input.YColumn,
		FieldColumn: p.cfg.Input.FieldColumn,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("loaded survey samples",
		zap.String("path", p.cfg.Input.Path),
		zap.Int("samples", cloud.Len()))

	field, err := p.calculator.FieldAt(ctx, geomag.Site{
		Latitude:   p.cfg.Site.Latitude,
		Longitude:  p.cfg.Site.Longitude,
		AltitudeKm: p.cfg.Site.AltitudeKm,
		Date:       p.cfg.Site.Date,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("geomagnetic reference field",
		zap.Float64("inclination_deg", field.Inclination),
		zap.Float64("declination_deg", field.Declination),
		zap.Float64("total_intensity_nt", field.TotalIntensity))

	reference, err := p.referenceField(field)
	if err != nil {
		return nil, err
	}
	for i := range cloud.Field {
		cloud.Field[i] -= reference
	}
	p.logger.Info("referenced total-field readings", zap.Float64("reference_nt", reference))

	decimated, err := gridding.BlockReduce(cloud, p.cfg.Grid.BlockSpacing)
	if err != nil {
		return nil, err
	}
	p.logger.Info("block-reduced point cloud",
		zap.Float64("spacing_m", p.cfg.Grid.BlockSpacing),
		zap.Int("before", cloud.Len()),
		zap.Int("after", decimated.Len()))

	spline := gridding.NewSpline(p.cfg.Grid.MinDistance, p.cfg.Grid.Damping)
	spline.Workers = p.cfg.Grid.Workers
	if err := spline.Fit(decimated); err != nil {
		return nil, err
	}

	region := decimated.Bounds().Pad(p.cfg.Grid.Pad)
	full, err := spline.Grid(ctx, region, p.cfg.Grid.Spacing)
	if err != nil {
		return nil, err
	}
	p.logger.Info("gridded anomaly",
		zap.Int("rows", full.NRows),
		zap.Int("cols", full.NCols),
		zap.Float64("spacing_m", p.cfg.Grid.Spacing))

	gridded, err := gridding.DistanceMask(full, decimated, p.cfg.Grid.MaskDistance)
	if err != nil {
		return nil, err
	}

	// The pole reduction runs on the unmasked grid; NaNs that the
	// spline could not avoid are patched with the grid median first.
	filled, patched, err := gridding.FillNaN(full)
	if err != nil {
		return nil, err
	}
	if patched > 0 {
		p.logger.Warn("patched NaN grid cells before pole reduction", zap.Int("cells", patched))
	}

	reducedFull, err := rtp.Apply(filled, field)
	if err != nil {
		return nil, err
	}

	// Re-mask with the same distance criterion so the invalid
	// footprint matches the interpolated grid.
	reduced, err := gridding.DistanceMask(reducedFull, decimated, p.cfg.Grid.MaskDistance)
	if err != nil {
		return nil, err
	}

	if err := p.writeExports(decimated, gridded, reduced); err != nil {
		return nil, err
	}

	if err := raster.WriteGeoTIFF(p.cfg.Raster.Output, reduced, p.cfg.Raster.EPSG); err != nil {
		return nil, err
	}
	p.logger.Info("wrote pole-reduced raster",
		zap.String("path", p.cfg.Raster.Output),
		zap.Int("epsg", p.cfg.Raster.EPSG),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Field:      field,
		Samples:    cloud.Len(),
		Decimated:  decimated,
		Gridded:    gridded,
		Reduced:    reduced,
		RasterPath: p.cfg.Raster.Output,
	}, nil
}

// referenceField resolves the ambient field value subtracted from the
// raw readings: the model's total intensity in auto mode, otherwise the
// configured constant.
func (p *Pipeline) referenceField(field models.GeomagneticField) (float64, error) {
	if p.cfg.Anomaly.Auto() {
		return field.TotalIntensity, nil
	}
	v, err := p.cfg.Anomaly.Value()
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: resolve anomaly reference")
	}
	return v, nil
}

// writeExports emits the optional intermediate products.
func (p *Pipeline) writeExports(decimated *models.PointCloud, gridded, reduced *models.Grid) error {
	dir := p.cfg.Export.Dir
	if dir == "" {
		return nil
	}

	if p.cfg.Export.Shapefile {
		path := filepath.Join(dir, "decimated_points.shp")
		if err := export.PointShapefile(decimated, path); err != nil {
			return err
		}
		p.logger.Info("exported decimated points", zap.String("path", path))
	}

	path := filepath.Join(dir, "gridded_anomaly.tif")
	if err := export.GridGeoTIFF(gridded, p.cfg.Raster.EPSG, path); err != nil {
		return err
	}
	p.logger.Info("exported gridded anomaly", zap.String("path", path))

	if p.cfg.Export.Previews {
		for name, grid := range map[string]*models.Grid{
			"gridded_anomaly.png": gridded,
			"reduced_to_pole.png": reduced,
		} {
			path := filepath.Join(dir, name)
			if err := visualization.SavePreview(grid, path); err != nil {
				return err
			}
			p.logger.Info("rendered preview", zap.String("path", path))
		}
	}

	return nil
}
