package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveExistsDelete(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(filepath.Join(dir, "out"))

	path, err := fs.Save("pencil_sketch.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "pencil_sketch.png"), path)
	assert.True(t, fs.Exists("pencil_sketch.png"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, fs.Delete("pencil_sketch.png"))
	assert.False(t, fs.Exists("pencil_sketch.png"))
}

func TestSaveOverwrites(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	_, err := fs.Save("a.png", strings.NewReader("first"))
	require.NoError(t, err)
	path, err := fs.Save("a.png", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestRejectsEscapingNames(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	for _, name := range []string{"../evil.png", "/etc/passwd", ""} {
		_, err := fs.Save(name, strings.NewReader("x"))
		assert.Error(t, err, name)
		assert.False(t, fs.Exists(name), name)
	}
}

func TestSaveFiles(t *testing.T) {
	fs := NewFileStorage(t.TempDir())
	files := []packager.File{
		{Name: "original.png", Data: []byte{1, 2}},
		{Name: "stylization.png", Data: []byte{3}},
	}

	paths, err := SaveFiles(fs, files)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for i, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(files[i].Data, data))
	}
}

func TestSaveFilesRemovesPartialOutput(t *testing.T) {
	fs := NewFileStorage(t.TempDir())
	files := []packager.File{
		{Name: "edge_preserving.png", Data: []byte{1}},
		{Name: "stylization.png", Data: []byte{2}},
		{Name: "../escape.png", Data: []byte{3}},
	}

	paths, err := SaveFiles(fs, files)

	require.Error(t, err)
	assert.Nil(t, paths)
	assert.False(t, fs.Exists("edge_preserving.png"))
	assert.False(t, fs.Exists("stylization.png"))
}
