package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MaterializeExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "resumes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resumes", "ada.pdf"), []byte("pdf"), 0o644))

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	path, err := store.Materialize("resumes/ada.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resumes", "ada.pdf"), path)
}

func TestFileStore_MaterializeMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Materialize("resumes/nobody.pdf")
	assert.Error(t, err)
}

func TestFileStore_RejectsEscapingReference(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Materialize("../outside.pdf")
	assert.Error(t, err)

	_, err = store.Materialize("/etc/passwd")
	assert.Error(t, err)
}

func TestFileStore_SaveScreenshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ref, err := store.SaveScreenshot("submitted-123.png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "screenshots/submitted-123.png", ref)

	data, err := os.ReadFile(filepath.Join(dir, "screenshots", "submitted-123.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
