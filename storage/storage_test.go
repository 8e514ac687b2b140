package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyAccessToken, "T1"))
	v, ok := s.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "T1", v)

	require.NoError(t, s.Delete(KeyAccessToken))
	_, ok = s.Get(KeyAccessToken)
	assert.False(t, ok)

	// deleting again is fine
	require.NoError(t, s.Delete(KeyAccessToken))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "auth.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyAccessToken, "T1"))
	require.NoError(t, s.Set(KeyUser, `{"email":"a@b.com"}`))

	// a fresh store sees the persisted values
	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok := reloaded.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "T1", v)

	require.NoError(t, reloaded.Delete(KeyAccessToken))
	again, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok = again.Get(KeyAccessToken)
	assert.False(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}
