package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) FileStorage {
	t.Helper()
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestSaveAndGet(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.Save("photo.png", strings.NewReader("fake-png"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"), "extension preserved")

	file, err := storage.Get(path)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "fake-png", string(content))
}

func TestSaveGeneratesUniquePaths(t *testing.T) {
	storage := newTestStorage(t)

	p1, err := storage.Save("photo.png", strings.NewReader("a"))
	require.NoError(t, err)
	p2, err := storage.Save("photo.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestDelete(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.Save("photo.png", strings.NewReader("fake-png"))
	require.NoError(t, err)

	require.NoError(t, storage.Delete(path))

	_, err = storage.Get(path)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// deleting twice is not an error
	assert.NoError(t, storage.Delete(path))
}

func TestGetRejectsPathTraversal(t *testing.T) {
	storage := newTestStorage(t)

	for _, path := range []string{"../etc/passwd", "/etc/passwd", "ab/../../secret"} {
		_, err := storage.Get(path)
		assert.ErrorIs(t, err, ErrPathTraversal, path)
	}
}

func TestValidateInlineImage(t *testing.T) {
	assert.NoError(t, ValidateInlineImage("image/png", 1024))
	assert.NoError(t, ValidateInlineImage("image/jpeg", MaxInlineImageBytes))

	assert.ErrorIs(t, ValidateInlineImage("application/pdf", 1024), ErrNotAnImage)
	assert.ErrorIs(t, ValidateInlineImage("text/html", 10), ErrNotAnImage)
	assert.ErrorIs(t, ValidateInlineImage("image/png", MaxInlineImageBytes+1), ErrFileTooLarge)
}
