/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/catalog"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index every transport file in a directory into the catalog",
	Long: `Walk a directory, decode each transport file and record its metadata
and row count in the local catalog.

Example:
  xport index ./data --catalog ./catalog`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogDir, err := resolveCatalogDir(cmd)
		if err != nil {
			return err
		}

		c, err := catalog.Open(catalogDir)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var indexed, failed int
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xpt") {
				continue
			}
			path := filepath.Join(args[0], entry.Name())
			e, err := c.IndexFile(path)
			if err != nil {
				fmt.Fprintf(out, "skip %s: %v\n", entry.Name(), err)
				failed++
				continue
			}
			fmt.Fprintf(out, "indexed %s: dataset %s, %d rows\n", entry.Name(), e.Dataset, e.Rows)
			indexed++
		}
		fmt.Fprintf(out, "%d indexed, %d skipped\n", indexed, failed)
		return nil
	},
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets recorded in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogDir, err := resolveCatalogDir(cmd)
		if err != nil {
			return err
		}

		c, err := catalog.Open(catalogDir)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := c.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATASET\tVERSION\tVARS\tROWS\tFILE\tINDEXED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				e.Dataset, e.Version, len(e.Columns), e.Rows, e.File,
				e.IndexedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func resolveCatalogDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("catalog"); dir != "" {
		return dir, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.CatalogDir, nil
}

func init() {
	indexCmd.Flags().String("catalog", "", "Catalog directory (default from config)")
	listCmd.Flags().String("catalog", "", "Catalog directory (default from config)")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(listCmd)
}
