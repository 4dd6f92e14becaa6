package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	assert.Empty(t, store.Token())
	_, ok := store.Profile()
	assert.False(t, ok)

	require.NoError(t, store.SetToken("tok-1"))
	require.NoError(t, store.SetProfile([]byte(`{"id":"u-1"}`)))

	assert.Equal(t, "tok-1", store.Token())
	profile, ok := store.Profile()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"u-1"}`, string(profile))

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Token())
	_, ok = store.Profile()
	assert.False(t, ok)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	store, err := OpenFile(path)
	require.NoError(t, err)
	assert.Empty(t, store.Token())

	require.NoError(t, store.SetToken("tok-9"))
	require.NoError(t, store.SetProfile([]byte(`{"id":"u-9","role":"staff"}`)))

	// a fresh open sees the persisted session
	reopened, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", reopened.Token())

	profile, ok := reopened.Profile()
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"u-9","role":"staff"}`, string(profile))
}

func TestFileStoreFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok-2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "tok-2", stored["authToken"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok-3"))
	require.NoError(t, store.Clear())

	assert.Empty(t, store.Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing an already-cleared session is not an error
	require.NoError(t, store.Clear())
}

func TestFileStoreCorruptFileYieldsEmptySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not-json"), 0o600))

	store, err := OpenFile(path)
	require.NoError(t, err)
	assert.Empty(t, store.Token())
}
