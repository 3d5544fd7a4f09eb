package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCreatesEmptyBlob(t *testing.T) {
	store := New(t.TempDir())

	dir, err := store.Ensure("tenant-1")
	require.Nil(t, err)
	assert.DirExists(t, dir)

	blob, err := store.Read("tenant-1")
	require.Nil(t, err)
	assert.JSONEq(t, "{}", string(blob))

	// Ensure is idempotent and must not truncate an existing blob.
	require.Nil(t, store.SetIdentity("tenant-1", "5551234"))
	_, err = store.Ensure("tenant-1")
	require.Nil(t, err)
	assert.Equal(t, "5551234", store.Identity("tenant-1"))
}

func TestIdentityMarkerRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Ensure("tenant-1")
	require.Nil(t, err)

	assert.False(t, store.HasCompletedLogin("tenant-1"))
	assert.Equal(t, "", store.Identity("tenant-1"))

	require.Nil(t, store.SetIdentity("tenant-1", "5551234"))
	assert.True(t, store.HasCompletedLogin("tenant-1"))
	assert.Equal(t, "5551234", store.Identity("tenant-1"))
}

func TestSetIdentityPreservesEngineState(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	_, err := store.Ensure("tenant-1")
	require.Nil(t, err)

	// Simulate the protocol engine writing its own key material.
	blobPath := filepath.Join(root, "tenant-1", BlobFileName)
	require.NoError(t, os.WriteFile(blobPath, []byte(`{"noiseKey":"abc","registered":true}`), 0600))

	require.Nil(t, store.SetIdentity("tenant-1", "5551234"))
	blob, apperr := store.Read("tenant-1")
	require.Nil(t, apperr)
	assert.Contains(t, string(blob), "noiseKey")
	assert.Contains(t, string(blob), "5551234")
}

func TestReadMissingTenant(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Read("ghost")
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestEraseIsIdempotent(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Ensure("tenant-1")
	require.Nil(t, err)

	require.Nil(t, store.Erase("tenant-1"))
	require.Nil(t, store.Erase("tenant-1"))

	_, rerr := store.Read("tenant-1")
	assert.True(t, errors.Is(rerr, ErrNoCredentials))
}

func TestListTenants(t *testing.T) {
	store := New(t.TempDir())
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Ensure(id)
		require.Nil(t, err)
	}
	tenants, err := store.List()
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tenants)
}

func TestListEmptyRoot(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	tenants, err := store.List()
	require.Nil(t, err)
	assert.Empty(t, tenants)
}

func TestRejectsPathTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, id := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := store.Ensure(id)
		assert.True(t, errors.Is(err, ErrInvalidTenantID), "id %q", id)
	}
}
