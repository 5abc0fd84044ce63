/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/codec"
	"github.com/trialdata/xportio/pkg/engine"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Re-encode a transport file at another format version",
	Long: `Decode a transport file and re-encode it at the requested format
version. Converting down to V5 fails when a name, label or field width
exceeds the legacy limits; nothing is written in that case.

Examples:
  xport convert dm_v5.xpt dm_v8.xpt --to V8
  xport convert dm_v8.xpt dm_v5.xpt --to V5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		toFlag, _ := cmd.Flags().GetString("to")
		target, err := parseVersion(toFlag)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		padMode, err := cfg.Write.PadMode()
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		rd, err := engine.NewReader(in, engine.ReaderConfig{})
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		ds := rd.Dataset()
		ds.Version = target
		// Validate before the output file exists so a failed conversion
		// leaves nothing behind.
		if err := ds.Validate(); err != nil {
			return fmt.Errorf("dataset does not fit %s: %w", target, err)
		}

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()

		lib := rd.Library()
		mem := rd.Member()
		w, err := engine.NewWriter(out, ds, engine.WriterConfig{
			SASVersion: lib.SASVersion,
			OS:         lib.OS,
			Type:       mem.Type,
			Pad:        padMode,
			Timestamp:  mem.Created,
		})
		if err != nil {
			return err
		}

		it := rd.Rows()
		for it.Next() {
			if err := w.WriteRow(it.Row()); err != nil {
				return err
			}
		}
		if err := it.Err(); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s (%s)\n", w.RowsWritten(), args[1], target)
		return nil
	},
}

func parseVersion(s string) (codec.Version, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "V5", "5":
		return codec.V5, nil
	case "V8", "8":
		return codec.V8, nil
	default:
		return 0, fmt.Errorf("unknown version %q (want V5 or V8)", s)
	}
}

func init() {
	convertCmd.Flags().String("to", "V5", "Target format version (V5 or V8)")
	rootCmd.AddCommand(convertCmd)
}
