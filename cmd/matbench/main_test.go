package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/matbench/internal/bench"
	"github.com/23skdu/matbench/internal/codec"
	"github.com/23skdu/matbench/internal/config"
)

func noEnv(string) string { return "" }

func writeMatrix(t *testing.T, dir, name string, data [][]float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, codec.WriteMatrix(path, data))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_MissingArguments(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.csv")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{dest, "a.csv"}, &stdout, noEnv)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Usage:")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := writeMatrix(t, dir, "a.csv", [][]float64{{1, 0}, {0, 1}})
	b := writeMatrix(t, dir, "b.csv", [][]float64{{2, 0}, {0, 2}})
	dest := filepath.Join(dir, "out.csv")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-verify", dest, a, b, "1"}, &stdout, noEnv))

	rows := readCSV(t, dest)
	require.Len(t, rows, 16)
	assert.Equal(t, []string{"NumThreads", "Method", "Time (ns)"}, rows[0])
	for i, id := range bench.Methods() {
		row := rows[i+1]
		assert.Equal(t, "1", row[0])
		assert.Equal(t, id.String(), row[1])
		assert.NotEmpty(t, row[2])
		assert.False(t, strings.HasPrefix(row[2], "-"))
	}
	assert.Contains(t, stdout.String(), "TIMES")
}

func TestRun_ThreadOverrideFromEnv(t *testing.T) {
	dir := t.TempDir()
	a := writeMatrix(t, dir, "a.csv", [][]float64{{1, 2}, {3, 4}})
	b := writeMatrix(t, dir, "b.csv", [][]float64{{5, 6}, {7, 8}})
	dest := filepath.Join(dir, "out.csv")

	env := func(k string) string {
		if k == config.EnvThreads {
			return "3"
		}
		return ""
	}
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-backend", "native", dest, a, b, "2"}, &stdout, env))

	rows := readCSV(t, dest)
	require.Len(t, rows, 16)
	for _, row := range rows[1:] {
		assert.Equal(t, "3", row[0])
	}
}

func TestRun_Sweep(t *testing.T) {
	dir := t.TempDir()
	a := writeMatrix(t, dir, "a.csv", [][]float64{{1, 2}, {3, 4}})
	b := writeMatrix(t, dir, "b.csv", [][]float64{{5, 6}, {7, 8}})
	dest := filepath.Join(dir, "out.csv")
	metrics := filepath.Join(dir, "metrics.prom")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-sweep", "2", "-metrics-out", metrics, dest, a, b, "1"}, &stdout, noEnv))

	rows := readCSV(t, dest)
	require.Len(t, rows, 31)
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2", rows[30][0])

	raw, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "matbench_trials_total")
}

func TestRun_MalformedMatrix(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,2\n3,oops\n"), 0o644))
	b := writeMatrix(t, dir, "b.csv", [][]float64{{5, 6}, {7, 8}})
	dest := filepath.Join(dir, "out.csv")

	err := run(context.Background(), []string{dest, bad, b, "1"}, &bytes.Buffer{}, noEnv)
	var pe *codec.ParseError
	require.ErrorAs(t, err, &pe)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no output file on load failure")
}

func TestRun_MissingMatrix(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.csv")
	err := run(context.Background(), []string{dest, filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), "1"}, &bytes.Buffer{}, noEnv)

	var ioe *codec.IOError
	require.ErrorAs(t, err, &ioe)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_BadTrials(t *testing.T) {
	err := run(context.Background(), []string{"out.csv", "a.csv", "b.csv", "many"}, &bytes.Buffer{}, noEnv)
	var pe *config.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestRun_TrailingFlagsRejected(t *testing.T) {
	dir := t.TempDir()
	a := writeMatrix(t, dir, "a.csv", [][]float64{{1, 2}, {3, 4}})
	b := writeMatrix(t, dir, "b.csv", [][]float64{{5, 6}, {7, 8}})
	dest := filepath.Join(dir, "out.csv")

	err := run(context.Background(), []string{dest, a, b, "1", "-threads", "4"}, &bytes.Buffer{}, noEnv)
	var pe *config.ParseError
	require.ErrorAs(t, err, &pe)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MetricsWriteError(t *testing.T) {
	dir := t.TempDir()
	a := writeMatrix(t, dir, "a.csv", [][]float64{{1, 2}, {3, 4}})
	b := writeMatrix(t, dir, "b.csv", [][]float64{{5, 6}, {7, 8}})
	dest := filepath.Join(dir, "out.csv")
	metrics := filepath.Join(dir, "no", "such", "metrics.prom")

	err := run(context.Background(), []string{"-metrics-out", metrics, dest, a, b, "1"}, &bytes.Buffer{}, noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics")
}
