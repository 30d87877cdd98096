package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaPutAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	blob := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0x01, 0x02}
	id, err := repo.Put("rec-1", blob, MediaMeta{Type: "audio", Duration: 12, MimeType: "audio/webm"})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)

	got, err := repo.Get("rec-1")
	require.NoError(t, err)
	assert.Equal(t, blob, got.Blob, "blob survives the round trip byte for byte")
	assert.Equal(t, "audio", got.Meta.Type)
	assert.Equal(t, 12, got.Meta.Duration)
	assert.Equal(t, "audio/webm", got.Meta.MimeType)
	assert.False(t, got.Meta.StoredAt.IsZero(), "store time is defaulted")
}

func TestMediaPutRequiresID(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	_, err := repo.Put("", []byte("x"), MediaMeta{Type: "audio"})
	assert.Error(t, err)
}

func TestMediaOverwrite(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	old := MediaMeta{Type: "audio", MimeType: "audio/webm", StoredAt: time.Now().UTC().Add(-48 * time.Hour)}
	_, err := repo.Put("rec-1", []byte("old"), old)
	require.NoError(t, err)

	_, err = repo.Put("rec-1", []byte("new"), MediaMeta{Type: "audio", MimeType: "audio/webm"})
	require.NoError(t, err)

	got, err := repo.Get("rec-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Blob)

	// The stale index entry is gone, so an expiry sweep past the old
	// timestamp must not delete the rewritten record.
	n, err := repo.ClearOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = repo.Get("rec-1")
	assert.NoError(t, err)
}

func TestMediaDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	_, err := repo.Put("rec-1", []byte("x"), MediaMeta{Type: "video", MimeType: "video/webm"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete("rec-1"))

	_, err = repo.Get("rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete("rec-1"), ErrNotFound)
}

func TestMediaListAll(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	_, err := repo.Put("rec-1", []byte("a"), MediaMeta{Type: "audio", MimeType: "audio/webm"})
	require.NoError(t, err)
	_, err = repo.Put("rec-2", []byte("b"), MediaMeta{Type: "video", MimeType: "video/webm"})
	require.NoError(t, err)

	all, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, rec := range all {
		assert.Empty(t, rec.Blob, "listing skips payloads")
		assert.NotEmpty(t, rec.Meta.MimeType)
	}
}

func TestMediaClearOlderThan(t *testing.T) {
	db := openTestDB(t)
	repo := NewMediaRepository(db)

	stale := MediaMeta{Type: "audio", MimeType: "audio/webm", StoredAt: time.Now().UTC().Add(-10 * 24 * time.Hour)}
	_, err := repo.Put("stale", []byte("old"), stale)
	require.NoError(t, err)

	fresh := MediaMeta{Type: "audio", MimeType: "audio/webm", StoredAt: time.Now().UTC().Add(-1 * time.Hour)}
	_, err = repo.Put("fresh", []byte("new"), fresh)
	require.NoError(t, err)

	n, err := repo.ClearOlderThan(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Get("stale")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get("fresh")
	assert.NoError(t, err)
}
