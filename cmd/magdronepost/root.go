package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hadrienmichel/MagDronePost/pkg/config"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "magdronepost",
	Short: "Drone magnetometry post-processing",
	Long: "Converts pre-processed drone magnetometry surveys (MagComPy CSV) into " +
		"reduced-to-pole magnetic anomaly GeoTIFF rasters.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init-config must run before a config file exists.
		if cmd.Name() == "init-config" {
			return config.InitLogger(config.LogConfig{Level: "info", Format: "console"})
		}

		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the YAML config file (default ./magdronepost.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
