package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectInputsExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.sgml", "c.nc", "notes.md", "d.TXT"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep.txt"), []byte("x"), 0o644))

	paths, err := collectInputs([]string{dir})
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	// One level deep, container extensions only, case-insensitive, sorted.
	assert.Equal(t, []string{"a.txt", "b.sgml", "c.nc", "d.TXT"}, names)
}

func TestCollectInputsKeepsExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "anything.dat")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	paths, err := collectInputs([]string{p})
	require.NoError(t, err)
	assert.Equal(t, []string{p}, paths)
}

func TestCollectInputsMissingPath(t *testing.T) {
	_, err := collectInputs([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
