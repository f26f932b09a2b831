package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Cell Biology":     "Cell_Biology",
		"Physics - Optics": "Physics___Optics",
		"abc123":           "abc123",
		"Café":             "Caf_",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.Write("deck.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deck.csv"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(got))
}

func TestWriter_RejectsPaths(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.csv", "sub/file.csv"} {
		_, err := w.Write(name, []byte("x"))
		assert.Error(t, err, "name %q", name)
	}
}
