package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewFileStore(path)
	_, ok := s.Token()
	assert.False(t, ok, "fresh store must be unauthenticated")

	require.NoError(t, s.Set("tok-123", "user-1"))

	// A second store reading the same file sees the session.
	s2 := NewFileStore(path)
	tok, ok := s2.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-123", tok)
	uid, ok := s2.UserID()
	require.True(t, ok)
	assert.Equal(t, "user-1", uid)
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.Set("tok", "uid"))
	require.NoError(t, s.Clear())

	_, ok := s.Token()
	assert.False(t, ok)
	_, ok = s.UserID()
	assert.False(t, ok)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clear removes the file")

	// Clearing an already-empty store is fine.
	require.NoError(t, s.Clear())
}

func TestFileStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewFileStore(path)
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	_, ok := s.Token()
	assert.False(t, ok)

	require.NoError(t, s.Set("tok", "uid"))
	tok, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "tok", tok)

	require.NoError(t, s.Clear())
	_, ok = s.UserID()
	assert.False(t, ok)
}
