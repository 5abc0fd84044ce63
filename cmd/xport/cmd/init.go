/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with a generated API key",
	Long: `Write a starter configuration file. A fresh client API key is
generated so the serve command starts out protected.

Example:
  xport init --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")

		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(configPath) {
			return fmt.Errorf("config already exists at %s", configPath)
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote config to %s\n", configPath)
		fmt.Fprintf(out, "Client API key: %s\n", cfg.Security.ClientAPIKey)
		return nil
	},
}

func init() {
	initCmd.Flags().String("data-dir", "", "Data directory to record in the config")
	rootCmd.AddCommand(initCmd)
}
