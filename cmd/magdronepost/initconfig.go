package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hadrienmichel/MagDronePost/pkg/config"
)

var initConfigPath string

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default configuration file to edit for a new survey",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(initConfigPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", initConfigPath)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().StringVar(&initConfigPath, "path", "magdronepost.yaml", "where to write the config file")
	rootCmd.AddCommand(initConfigCmd)
}
