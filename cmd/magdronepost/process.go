package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/internal/geomag"
	"github.com/hadrienmichel/MagDronePost/pkg/pipeline"
)

var (
	processInput  string
	processOutput string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full survey-to-raster pipeline",
	Long: "Loads the survey CSV, queries the geomagnetic reference model, " +
		"block-reduces and grids the anomaly, reduces it to the pole and " +
		"writes the GeoTIFF.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if processInput != "" {
			cfg.Input.Path = processInput
		}
		if processOutput != "" {
			cfg.Raster.Output = processOutput
		}

		client := geomag.NewClient(
			cfg.Geomag.BaseURL,
			cfg.Geomag.Model,
			cfg.Geomag.Revision,
			cfg.Geomag.Timeout(),
			zap.L(),
		)

		result, err := pipeline.New(cfg, client, zap.L()).Run(cmd.Context())
		if err != nil {
			return err
		}

		zap.L().Info("pipeline finished",
			zap.Int("samples", result.Samples),
			zap.Int("decimated", result.Decimated.Len()),
			zap.Int("grid_rows", result.Reduced.NRows),
			zap.Int("grid_cols", result.Reduced.NCols),
			zap.String("raster", result.RasterPath))
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processInput, "input", "", "survey CSV path (overrides input.path)")
	processCmd.Flags().StringVar(&processOutput, "output", "", "output GeoTIFF path (overrides raster.output)")
	rootCmd.AddCommand(processCmd)
}
