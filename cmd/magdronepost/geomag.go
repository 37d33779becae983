package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/internal/geomag"
)

var geomagCmd = &cobra.Command{
	Use:   "geomag",
	Short: "Print the geomagnetic reference field for the configured site",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := geomag.NewClient(
			cfg.Geomag.BaseURL,
			cfg.Geomag.Model,
			cfg.Geomag.Revision,
			cfg.Geomag.Timeout(),
			zap.L(),
		)

		field, err := client.FieldAt(cmd.Context(), geomag.Site{
			Latitude:   cfg.Site.Latitude,
			Longitude:  cfg.Site.Longitude,
			AltitudeKm: cfg.Site.AltitudeKm,
			Date:       cfg.Site.Date,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Model:           %s/%s\n", cfg.Geomag.Model, cfg.Geomag.Revision)
		fmt.Printf("Site:            %.7f, %.7f (%.3f km AMSL) on %s\n",
			cfg.Site.Latitude, cfg.Site.Longitude, cfg.Site.AltitudeKm, cfg.Site.Date)
		fmt.Printf("Inclination:     %.4f deg\n", field.Inclination)
		fmt.Printf("Declination:     %.4f deg\n", field.Declination)
		fmt.Printf("Total intensity: %.1f nT\n", field.TotalIntensity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geomagCmd)
}
