package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialdata/xportio/pkg/codec"
	"github.com/trialdata/xportio/pkg/dataset"
	"github.com/trialdata/xportio/pkg/engine"
)

func writeSample(t *testing.T, path string, version codec.Version) {
	t.Helper()

	ds := &dataset.Dataset{
		Name:    "DM",
		Label:   "Demographics",
		Version: version,
		Columns: []dataset.Column{
			{Name: "USUBJID", Kind: dataset.Character, Length: 12},
			{Name: "AGE", Kind: dataset.Numeric, Length: 8},
		},
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := engine.NewWriter(f, ds, engine.WriterConfig{})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(dataset.Row{dataset.Text("STUDY1-001"), dataset.Number(34)}))
	require.NoError(t, w.WriteRow(dataset.Row{dataset.Text("STUDY1-002"), dataset.Missing(codec.MissingStandard)}))
	require.NoError(t, w.Close())
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestDescribeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dm.xpt")
	writeSample(t, path, codec.V5)

	out, err := runCommand(t, "describe", path, "--rows")
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset:       DM")
	assert.Contains(t, out, "Demographics")
	assert.Contains(t, out, "USUBJID")
	assert.Contains(t, out, "character")
	assert.Contains(t, out, "Observations:  2")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dm.xpt")
	out := filepath.Join(dir, "dm.csv")
	writeSample(t, in, codec.V5)

	_, err := runCommand(t, "export", in, "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	csv := string(data)
	assert.Contains(t, csv, "USUBJID,AGE")
	assert.Contains(t, csv, "STUDY1-001,34")
	// Missing numeric values export in dot notation.
	assert.Contains(t, csv, "STUDY1-002,.")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dm_v5.xpt")
	out := filepath.Join(dir, "dm_v8.xpt")
	writeSample(t, in, codec.V5)

	msg, err := runCommand(t, "convert", in, out, "--to", "V8")
	require.NoError(t, err)
	assert.Contains(t, msg, "Wrote 2 rows")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rd, err := engine.NewReader(f, engine.ReaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, codec.V8, rd.Dataset().Version)

	rows, err := rd.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dataset.Text("STUDY1-001"), rows[0][0])
}

func TestConvertRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dm.xpt")
	writeSample(t, in, codec.V5)

	_, err := runCommand(t, "convert", in, filepath.Join(dir, "out.xpt"), "--to", "V9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown version")
}
