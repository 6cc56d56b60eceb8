package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	base := t.TempDir()
	got, err := ResolvePaths(Default(), base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(base), got.Root)
	assert.Equal(t, filepath.Join(base, "data", "tsresolve.db"), got.IndexPath)
	assert.Empty(t, got.Universe)
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()
	cfg := Default()
	cfg.Root = "src"
	cfg.Index.Path = filepath.Join(other, "index.db")
	cfg.Universe = "types/globals.d.ts"

	got, err := ResolvePaths(cfg, base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "src"), got.Root)
	assert.Equal(t, filepath.Join(other, "index.db"), got.IndexPath)
	assert.Equal(t, filepath.Join(base, "src", "types", "globals.d.ts"), got.Universe)
}

func TestResolvePaths_EmptyBase(t *testing.T) {
	_, err := ResolvePaths(Default(), " ")
	assert.Error(t, err)
}

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte("{}"), 0o644))
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := DetectProjectRoot([]string{nested})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)
}
