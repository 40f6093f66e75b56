package keystore

import (
	"path/filepath"
	"testing"

	"stockpile/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T) *FileKeystore {
	t.Helper()

	ks, err := New(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	return ks
}

func TestFileKeystore_SetGet(t *testing.T) {
	ks := newTestKeystore(t)

	require.NoError(t, ks.Set(storage.KeyAccessToken, "access-1"))
	require.NoError(t, ks.Set(storage.KeyRefreshToken, "refresh-1"))

	got, err := ks.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", got)

	got, err = ks.Get(storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", got)
}

func TestFileKeystore_GetMissing(t *testing.T) {
	ks := newTestKeystore(t)

	_, err := ks.Get(storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestFileKeystore_Delete(t *testing.T) {
	ks := newTestKeystore(t)

	require.NoError(t, ks.Set(storage.KeyAccessToken, "access-1"))
	require.NoError(t, ks.Delete(storage.KeyAccessToken))

	_, err := ks.Get(storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, ks.Delete(storage.KeyAccessToken))
}

func TestFileKeystore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(storage.KeyAccessToken, "access-1"))

	second, err := New(path)
	require.NoError(t, err)

	got, err := second.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", got)
}
