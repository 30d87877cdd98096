package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MediaMeta describes a stored media blob.
type MediaMeta struct {
	Type     string    `json:"type"`
	Duration int       `json:"duration,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	MimeType string    `json:"mime_type"`
	StoredAt time.Time `json:"stored_at"`
}

// MediaRecord is a stored blob plus its metadata.
type MediaRecord struct {
	ID   string    `json:"id"`
	Meta MediaMeta `json:"meta"`
	Blob []byte    `json:"-"`
}

// MediaRepository handles local persistence of recorded and attached media
// blobs, keyed by caller-generated ids.
type MediaRepository struct {
	db *DB
}

// NewMediaRepository creates a new MediaRepository.
func NewMediaRepository(db *DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Put stores a blob and its metadata under id, overwriting silently on
// collision. The store timestamp feeds the expiry scan.
func (r *MediaRepository) Put(id string, blob []byte, meta MediaMeta) (string, error) {
	if id == "" {
		return "", errors.New("media id required")
	}
	if meta.StoredAt.IsZero() {
		meta.StoredAt = time.Now().UTC()
	}

	// Drop the stale timestamp index entry when overwriting.
	if old, err := r.getMeta(id); err == nil {
		if err := r.db.delete(mediaTSKey(old.StoredAt.UnixMilli(), id)); err != nil {
			return "", fmt.Errorf("replace media index: %w", err)
		}
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal media meta: %w", err)
	}
	if err := r.db.set(mediaKey(id), data); err != nil {
		return "", fmt.Errorf("save media meta: %w", err)
	}
	if err := r.db.set(mediaBlobKey(id), blob); err != nil {
		return "", fmt.Errorf("save media blob: %w", err)
	}
	if err := r.db.set(mediaTSKey(meta.StoredAt.UnixMilli(), id), []byte(id)); err != nil {
		return "", fmt.Errorf("index media: %w", err)
	}
	return id, nil
}

func (r *MediaRepository) getMeta(id string) (*MediaMeta, error) {
	data, err := r.db.get(mediaKey(id))
	if err != nil {
		return nil, err
	}
	var meta MediaMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal media meta: %w", err)
	}
	return &meta, nil
}

// Get returns the blob and metadata for id, or ErrNotFound.
func (r *MediaRepository) Get(id string) (*MediaRecord, error) {
	meta, err := r.getMeta(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get media meta: %w", err)
	}
	blob, err := r.db.get(mediaBlobKey(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get media blob: %w", err)
	}
	return &MediaRecord{ID: id, Meta: *meta, Blob: blob}, nil
}

// Delete removes the blob, metadata and index entry for id.
func (r *MediaRepository) Delete(id string) error {
	meta, err := r.getMeta(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get media meta: %w", err)
	}
	if err := r.db.delete(mediaTSKey(meta.StoredAt.UnixMilli(), id)); err != nil {
		return fmt.Errorf("delete media index: %w", err)
	}
	if err := r.db.delete(mediaBlobKey(id)); err != nil {
		return fmt.Errorf("delete media blob: %w", err)
	}
	if err := r.db.delete(mediaKey(id)); err != nil {
		return fmt.Errorf("delete media meta: %w", err)
	}
	return nil
}

// ListAll returns metadata for every stored blob, without loading payloads.
func (r *MediaRepository) ListAll() ([]MediaRecord, error) {
	iter, err := r.db.newIter()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := []byte("media:")
	var out []MediaRecord
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		id := strings.TrimPrefix(string(iter.Key()), "media:")
		var meta MediaMeta
		if err := json.Unmarshal(iter.Value(), &meta); err != nil {
			return nil, fmt.Errorf("unmarshal media meta: %w", err)
		}
		out = append(out, MediaRecord{ID: id, Meta: meta})
	}
	return out, iter.Error()
}

// ClearOlderThan deletes every blob stored more than maxAge ago, scanning
// the timestamp index, and returns the number deleted.
func (r *MediaRepository) ClearOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge).UnixMilli()

	iter, err := r.db.newIter()
	if err != nil {
		return 0, err
	}

	prefix := []byte(mediaTSPrefix())
	bound := []byte(fmt.Sprintf("%s%020d:", mediaTSPrefix(), cutoff))
	var expired []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) || bytes.Compare(iter.Key(), bound) >= 0 {
			break
		}
		expired = append(expired, string(iter.Value()))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return 0, err
	}
	iter.Close()

	for _, id := range expired {
		if err := r.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}
	return len(expired), nil
}
