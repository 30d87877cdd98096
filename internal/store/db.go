package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// DB wraps the embedded Pebble database that backs the local
// conversation, message and media stores.
type DB struct {
	db *pebble.DB

	// seq breaks key collisions when multiple messages share the same
	// nanosecond timestamp.
	seq uint64
}

// Open opens (or creates) the local database at path.
func Open(path string) (*DB, error) {
	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	logrus.WithField("path", path).Debug("local db opened")
	return &DB{db: pdb}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) nextSeq() uint64 {
	return atomic.AddUint64(&d.seq, 1)
}

// set writes a key with a synced WAL so local drafts survive a crash.
func (d *DB) set(key string, value []byte) error {
	return d.db.Set([]byte(key), value, pebble.Sync)
}

// get returns a copy of the value for key, or ErrNotFound.
func (d *DB) get(key string) ([]byte, error) {
	v, closer, err := d.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (d *DB) delete(key string) error {
	return d.db.Delete([]byte(key), pebble.Sync)
}

func (d *DB) newIter() (*pebble.Iterator, error) {
	return d.db.NewIter(&pebble.IterOptions{})
}
