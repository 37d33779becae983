// Package config loads the MagDronePost configuration from a YAML file
// and the environment, and initializes the global logger.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site" mapstructure:"site"`
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Anomaly AnomalyConfig `yaml:"anomaly" mapstructure:"anomaly"`
	Grid    GridConfig    `yaml:"grid" mapstructure:"grid"`
	Geomag  GeomagConfig  `yaml:"geomag" mapstructure:"geomag"`
	Raster  RasterConfig  `yaml:"raster" mapstructure:"raster"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SiteConfig locates the survey in space and time for the geomagnetic
// reference lookup.
type SiteConfig struct {
	Latitude   float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude  float64 `yaml:"longitude" mapstructure:"longitude"`
	AltitudeKm float64 `yaml:"altitude_km" mapstructure:"altitude_km"`
	Date       string  `yaml:"date" mapstructure:"date"`
}

// InputConfig describes the pre-processed survey CSV.
type InputConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	XColumn     string `yaml:"x_column" mapstructure:"x_column"`
	YColumn     string `yaml:"y_column" mapstructure:"y_column"`
	FieldColumn string `yaml:"field_column" mapstructure:"field_column"`
}

// AnomalyConfig controls how the ambient field is removed from the raw
// total-field readings. Reference "auto" subtracts the total intensity
// returned by the geomagnetic reference model; a numeric string (nT)
// subtracts that constant instead.
type AnomalyConfig struct {
	Reference string `yaml:"reference" mapstructure:"reference"`
}

// GridConfig holds the decimation, interpolation and masking parameters.
type GridConfig struct {
	// BlockSpacing is the median block-reduction bin size in meters.
	BlockSpacing float64 `yaml:"block_spacing" mapstructure:"block_spacing"`

	// Spacing is the output grid node spacing in meters.
	Spacing float64 `yaml:"spacing" mapstructure:"spacing"`

	// Pad grows the data bounding box by this many meters per side.
	Pad float64 `yaml:"pad" mapstructure:"pad"`

	// MaskDistance masks grid nodes farther than this from any
	// decimated sample, in meters.
	MaskDistance float64 `yaml:"mask_distance" mapstructure:"mask_distance"`

	// MinDistance is the spline Green's function distance floor in
	// meters; it keeps the fit matrix well conditioned.
	MinDistance float64 `yaml:"min_distance" mapstructure:"min_distance"`

	// Damping is the ridge regularization applied to the spline fit.
	Damping float64 `yaml:"damping" mapstructure:"damping"`

	// Workers bounds the goroutines used for grid evaluation.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// GeomagConfig configures the geomagnetic reference web service.
type GeomagConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	Revision    string `yaml:"revision" mapstructure:"revision"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (g GeomagConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// RasterConfig describes the output GeoTIFF.
type RasterConfig struct {
	// EPSG is the projected coordinate reference system code of the
	// input coordinates and the output raster (31370 = Belgian
	// Lambert 72).
	EPSG int `yaml:"epsg" mapstructure:"epsg"`

	Output string `yaml:"output" mapstructure:"output"`
}

// ExportConfig enables optional intermediate products.
type ExportConfig struct {
	// Dir receives intermediate products; empty disables them all.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Previews renders PNG previews of the gridded and pole-reduced
	// anomalies into Dir.
	Previews bool `yaml:"previews" mapstructure:"previews"`

	// Shapefile exports the decimated point cloud as an ESRI
	// shapefile into Dir.
	Shapefile bool `yaml:"shapefile" mapstructure:"shapefile"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from the given file (or ./magdronepost.yaml
// when path is empty) and the MAGDRONE_* environment, applying defaults
// for unset keys.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("magdronepost")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MAGDRONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.latitude", 50.6297580)
	v.SetDefault("site.longitude", 5.478596)
	v.SetDefault("site.altitude_km", 0.200)
	v.SetDefault("site.date", "2023-05-04")
	v.SetDefault("input.delimiter", ";")
	v.SetDefault("input.x_column", "X_BD72_m")
	v.SetDefault("input.y_column", "Y_BD72_m")
	v.SetDefault("input.field_column", "B1Tot")
	v.SetDefault("anomaly.reference", "auto")
	v.SetDefault("grid.block_spacing", 5.0)
	v.SetDefault("grid.spacing", 1.0)
	v.SetDefault("grid.pad", 50.0)
	v.SetDefault("grid.mask_distance", 20.0)
	v.SetDefault("grid.min_distance", 500.0)
	v.SetDefault("grid.damping", 1e-10)
	v.SetDefault("grid.workers", 0)
	v.SetDefault("geomag.base_url", "https://geomag.bgs.ac.uk/web_service/GMModels")
	v.SetDefault("geomag.model", "wmm")
	v.SetDefault("geomag.revision", "current")
	v.SetDefault("geomag.timeout_secs", 30)
	v.SetDefault("raster.epsg", 31370)
	v.SetDefault("raster.output", "reduced_to_pole.tif")
	v.SetDefault("export.dir", "")
	v.SetDefault("export.previews", false)
	v.SetDefault("export.shapefile", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return eris.Errorf("config: site latitude %g out of range [-90, 90]", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return eris.Errorf("config: site longitude %g out of range [-180, 180]", c.Site.Longitude)
	}
	if _, err := time.Parse("2006-01-02", c.Site.Date); err != nil {
		return eris.Wrapf(err, "config: site date %q is not yyyy-mm-dd", c.Site.Date)
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		return eris.Errorf("config: input delimiter %q must be a single character", c.Input.Delimiter)
	}
	if c.Input.XColumn == "" || c.Input.YColumn == "" || c.Input.FieldColumn == "" {
		return eris.New("config: input column names must not be empty")
	}
	if c.Grid.BlockSpacing <= 0 {
		return eris.Errorf("config: grid block_spacing %g must be positive", c.Grid.BlockSpacing)
	}
	if c.Grid.Spacing <= 0 {
		return eris.Errorf("config: grid spacing %g must be positive", c.Grid.Spacing)
	}
	if c.Grid.Pad < 0 {
		return eris.Errorf("config: grid pad %g must not be negative", c.Grid.Pad)
	}
	if c.Grid.MaskDistance < 0 {
		return eris.Errorf("config: grid mask_distance %g must not be negative", c.Grid.MaskDistance)
	}
	if c.Grid.MinDistance < 0 {
		return eris.Errorf("config: grid min_distance %g must not be negative", c.Grid.MinDistance)
	}
	if c.Grid.Damping < 0 {
		return eris.Errorf("config: grid damping %g must not be negative", c.Grid.Damping)
	}
	if c.Grid.Workers < 0 {
		return eris.Errorf("config: grid workers %d must not be negative", c.Grid.Workers)
	}
	if c.Geomag.TimeoutSecs <= 0 {
		return eris.Errorf("config: geomag timeout_secs %d must be positive", c.Geomag.TimeoutSecs)
	}
	if c.Raster.EPSG <= 0 || c.Raster.EPSG > 65535 {
		return eris.Errorf("config: raster epsg %d is not a valid code", c.Raster.EPSG)
	}
	if err := c.Anomaly.validate(); err != nil {
		return err
	}
	return nil
}

func (a AnomalyConfig) validate() error {
	if a.Reference == "auto" || a.Reference == "" {
		return nil
	}
	if _, err := a.Value(); err != nil {
		return err
	}
	return nil
}

// Auto reports whether the reference field should come from the
// geomagnetic model.
func (a AnomalyConfig) Auto() bool {
	return a.Reference == "auto" || a.Reference == ""
}

// Value returns the fixed reference field in nT. Only meaningful when
// Auto is false.
func (a AnomalyConfig) Value() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Reference), 64)
	if err != nil {
		return 0, eris.Errorf("config: anomaly reference %q is neither \"auto\" nor a number", a.Reference)
	}
	return v, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
