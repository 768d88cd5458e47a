package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, testutil.URLs, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Upload(ctx, "avatars/me.jpg", bytes.NewReader([]byte("data")), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://test-bucket.storage.test/avatars/me.jpg", url)

	data, err := os.ReadFile(filepath.Join(root, "avatars", "me.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	_, err = os.Stat(filepath.Join(root, "avatars", "me.jpg.part"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(ctx, "avatars/me.jpg"))
	require.NoError(t, store.Delete(ctx, "avatars/me.jpg"), "deleting twice is fine")

	_, err = store.Upload(ctx, "../escape", bytes.NewReader(nil), "")
	assert.Error(t, err)
}

func TestLocalStore_WithAssetService(t *testing.T) {
	f := newFixture(t)
	store, err := NewLocalStore(t.TempDir(), testutil.URLs, logger.Nop())
	require.NoError(t, err)
	f.assets.store = store
	owner := f.user(t, "auth0|owner")
	a := f.asset(t, owner, 1, 0)

	got, err := f.assets.AddPictures(f.ctx, a.UUID, owner.Auth0Sub, jpegs("a"))
	require.NoError(t, err)
	require.Len(t, got.Pictures, 1)
	assert.Contains(t, got.Pictures[0], a.UUID.String()+"_")
}
