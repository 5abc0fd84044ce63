/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transport files over a REST API",
	Long: `Start the REST API server. Every transport file in the data
directory becomes browsable: metadata at /api/v1/datasets and paged
observation rows at /api/v1/datasets/{name}/rows.

Setting an API key (flag or config) requires X-API-Key on every request;
the /metrics endpoint stays open for Prometheus scraping.

Examples:
  xport serve --data-dir ./data --port 8080
  xport serve --api-key mysecretkey`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		serverConfig := api.ServerConfig{
			Port:    cfg.Port,
			Bind:    cfg.Bind,
			APIKey:  cfg.Security.ClientAPIKey,
			DataDir: cfg.DataDir,
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			serverConfig.Port = port
		}
		if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
			serverConfig.Bind = bind
		}
		if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
			serverConfig.APIKey = apiKey
		}
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			serverConfig.DataDir = dataDir
		}

		return api.StartServer(serverConfig)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().String("bind", "", "Address to bind (default from config)")
	serveCmd.Flags().String("api-key", "", "Require this X-API-Key on API routes")
	serveCmd.Flags().String("data-dir", "", "Directory of transport files to serve")
	rootCmd.AddCommand(serveCmd)
}
