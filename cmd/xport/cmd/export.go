/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/dataset"
	"github.com/trialdata/xportio/pkg/engine"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a transport file to CSV",
	Long: `Stream the observation rows of a transport file out as CSV. Missing
numeric values render in their dot notation (".", "._", ".A" through ".Z").

Examples:
  xport export dm.xpt
  xport export dm.xpt -o dm.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("output")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var out io.Writer = cmd.OutOrStdout()
		if outPath != "" {
			of, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer of.Close()
			out = of
		}

		rd, err := engine.NewReader(f, engine.ReaderConfig{})
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		return exportCSV(rd, out)
	},
}

// exportCSV streams every observation row of rd to w.
func exportCSV(rd *engine.Reader, w io.Writer) error {
	ds := rd.Dataset()
	cw := csv.NewWriter(w)

	header := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(ds.Columns))
	it := rd.Rows()
	for it.Next() {
		row := it.Row()
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v dataset.Value) string {
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case dataset.KindMissing:
		code, _ := v.MissingCode()
		return code.String()
	default:
		s, _ := v.Str()
		return s
	}
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
