package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := Default()
	require.Equal(t, 1000, opts.BPNodeSize)
	require.Equal(t, DurabilityMemory, opts.Durability)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bpnode_size: 500\ndurability: durable\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500, opts.BPNodeSize)
	require.Equal(t, DurabilityOnDisk, opts.Durability)
	require.Equal(t, Default().QueryWorkers, opts.QueryWorkers)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
}
