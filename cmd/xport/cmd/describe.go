/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trialdata/xportio/pkg/dataset"
	"github.com/trialdata/xportio/pkg/engine"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print the metadata of a transport file",
	Long: `Decode the header region of a transport file and print the library,
member and variable metadata without reading any observation rows.

Example:
  xport describe dm.xpt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		countRows, _ := cmd.Flags().GetBool("rows")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rd, err := engine.NewReader(f, engine.ReaderConfig{})
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		ds := rd.Dataset()
		lib := rd.Library()
		mem := rd.Member()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Dataset:       %s\n", ds.Name)
		if ds.Label != "" {
			fmt.Fprintf(out, "Label:         %s\n", ds.Label)
		}
		fmt.Fprintf(out, "Version:       %s\n", ds.Version)
		fmt.Fprintf(out, "SAS version:   %s\n", lib.SASVersion)
		fmt.Fprintf(out, "OS:            %s\n", lib.OS)
		if !mem.Created.IsZero() {
			fmt.Fprintf(out, "Created:       %s\n", mem.Created.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "Record length: %d bytes\n", rd.RecordLength())
		fmt.Fprintf(out, "Variables:     %d\n", len(ds.Columns))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tTYPE\tLEN\tFORMAT\tLABEL")
		for i, col := range ds.Columns {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				i+1, col.Name, col.Kind, col.Length, formatSpec(col.Format), col.Label)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if countRows {
			rows, err := countObservations(rd)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nObservations:  %d\n", rows)
		}
		return nil
	},
}

func formatSpec(f dataset.VarFormat) string {
	if f.Name == "" {
		return ""
	}
	if f.Decimals > 0 {
		return fmt.Sprintf("%s%d.%d", f.Name, f.Width, f.Decimals)
	}
	if f.Width > 0 {
		return fmt.Sprintf("%s%d.", f.Name, f.Width)
	}
	return f.Name
}

func countObservations(rd *engine.Reader) (int64, error) {
	var rows int64
	it := rd.Rows()
	for it.Next() {
		rows++
	}
	return rows, it.Err()
}

func init() {
	describeCmd.Flags().Bool("rows", false, "Also count observation rows")
	rootCmd.AddCommand(describeCmd)
}
