package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "state.yaml")

	require.NoError(t, WriteFileAtomic(p, []byte("one\n"), 0o600))
	b, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(b))

	require.NoError(t, WriteFileAtomic(p, []byte("two\n"), 0o600))
	b, err = ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(b))

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "state.yaml")
	require.NoError(t, WriteFileAtomic(p, []byte("x"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.yaml", entries[0].Name())
}

func TestWriteFileAtomic_FailsWhenDirIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := WriteFileAtomic(filepath.Join(blocker, "state.yaml"), []byte("x"), 0o600)
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a")
	assert.False(t, Exists(p))
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	assert.True(t, Exists(p))
}
