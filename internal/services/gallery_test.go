package services

import (
	"context"
	"io"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaa35/qrwedding-sub000/internal/storage"
	"github.com/metaa35/qrwedding-sub000/pkg/apperr"
)

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestListByEventMissingFolderIsEmpty(t *testing.T) {
	f := newGalleryFixture(t, storage.NewMemoryStore())

	views, err := f.gallery.ListByEvent(context.Background(), EventTarget{EventName: "Nothing Yet", QRID: "qr_Nothing_Yet_1"})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestDeleteAsset(t *testing.T) {
	store := storage.NewMemoryStore()
	f := newGalleryFixture(t, store)
	ctx := context.Background()

	owner := createUser(t, f.db, "owner")
	stranger := createUser(t, f.db, "stranger")
	admin := createUser(t, f.db, "admin", asAdmin)
	binding, err := f.qr.Generate(ctx, owner, GenerateInput{EventName: "Garden"})
	require.NoError(t, err)

	meta := UploadMeta{QRID: binding.QRID, EventName: binding.EventName}
	first, err := f.uploads.Upload(ctx, nil, stringFile("a.png", "one"), meta)
	require.NoError(t, err)
	second, err := f.uploads.Upload(ctx, nil, stringFile("b.png", "two"), meta)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	firstID := uuid.MustParse(first.ID)
	err = f.gallery.DeleteAsset(ctx, stranger, firstID)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthorization, appErr.Kind)
	assert.Equal(t, 2, store.Len())

	require.NoError(t, f.gallery.DeleteAsset(ctx, owner, firstID))
	assert.Equal(t, 1, store.Len())
	require.NoError(t, f.gallery.DeleteAsset(ctx, owner, firstID), "deleting twice is not an error")

	require.NoError(t, f.gallery.DeleteAsset(ctx, admin, uuid.MustParse(second.ID)))
	assert.Equal(t, 0, store.Len())

	views, err := f.gallery.ListByEvent(ctx, EventTarget{EventName: binding.EventName, QRID: binding.QRID})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDeleteAssetRequiresGalleryCapability(t *testing.T) {
	f := newGalleryFixture(t, storage.NewMemoryStore())
	locked := createUser(t, f.db, "locked", withoutCapabilities)

	err := f.gallery.DeleteAsset(context.Background(), locked, uuid.New())
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeGalleryPermission, appErr.Code)
}

func TestOpenPublicAsset(t *testing.T) {
	f := newGalleryFixture(t, storage.NewMemoryStore())
	ctx := context.Background()
	owner := createUser(t, f.db, "owner")

	ref, err := f.uploads.Upload(ctx, owner, stringFile("pic.gif", "GIF89a"), UploadMeta{EventName: "Open House"})
	require.NoError(t, err)
	id := uuid.MustParse(ref.ID)

	node, rc, err := f.gallery.OpenPublicAsset(ctx, id, tokenFromLink(t, ref.ViewLink))
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(body))
	assert.Equal(t, "image/gif", node.MimeType)

	_, _, err = f.gallery.OpenPublicAsset(ctx, id, "")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	other, err := f.uploads.Upload(ctx, owner, stringFile("other.gif", "x"), UploadMeta{EventName: "Open House"})
	require.NoError(t, err)
	_, _, err = f.gallery.OpenPublicAsset(ctx, id, tokenFromLink(t, other.ViewLink))
	assert.True(t, apperr.Is(err, apperr.KindAuthorization), "token of another asset must be rejected")

	_, _, err = f.gallery.OpenPublicAsset(ctx, uuid.New(), "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestShareAll(t *testing.T) {
	f := newGalleryFixture(t, storage.NewMemoryStore())
	ctx := context.Background()
	owner := createUser(t, f.db, "owner")
	target := EventTarget{EventName: "Launch"}

	n, err := f.gallery.ShareAll(ctx, target)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	for _, name := range []string{"1.jpg", "2.jpg"} {
		_, err := f.uploads.Upload(ctx, owner, stringFile(name, "data"), UploadMeta{EventName: target.EventName})
		require.NoError(t, err)
	}

	n, err = f.gallery.ShareAll(ctx, target)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	views, err := f.gallery.ListByEvent(ctx, target)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		assert.True(t, view.Shared)
		assert.NotContains(t, view.ViewLink, "token=")

		_, rc, err := f.gallery.OpenPublicAsset(ctx, uuid.MustParse(view.ID), "")
		require.NoError(t, err)
		_ = rc.Close()
	}
}
