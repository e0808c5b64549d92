package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filinglab/riskseg/internal/segment"
)

func TestPathForStripsExtension(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	p := w.PathFor("/data/in/0000320193-23-000106.txt")
	assert.Equal(t, "0000320193-23-000106.segments.json", filepath.Base(p))
}

func TestWriteIsAtomicAndStable(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	out := &segment.Output{
		SectionID: "item1a",
		Title:     "Item 1A. Risk Factors",
		Segments: []segment.Segment{
			{Index: 0, Text: "Some risk text.", WordCount: 3, CharCount: 15},
		},
	}

	dest, err := w.Write("filing.txt", out)
	require.NoError(t, err)

	first, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(first), `"section_id": "item1a"`)

	// No temp file left behind.
	_, err = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(err))

	// Rewriting the same output yields identical bytes.
	_, err = w.Write("filing.txt", out)
	require.NoError(t, err)
	second, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
