package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/matbench/internal/codec"
)

func TestRun_Fill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	require.NoError(t, run([]string{path, "2", "3"}, &bytes.Buffer{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,1,1\n1,1,1\n", string(raw))
}

func TestRun_RandomZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv.zst")
	require.NoError(t, run([]string{"-random", "-seed", "7", path, "4", "5"}, &bytes.Buffer{}))

	got, err := codec.ReadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, codec.Random(4, 5, 7), got)
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"m.csv", "2"}, &out))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_BadDims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	assert.Error(t, run([]string{path, "0", "3"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{path, "2", "x"}, &bytes.Buffer{}))
}
