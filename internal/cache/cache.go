package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"BigPictureWatch/internal/model"
)

// Cache keeps one snapshot of the assembled collection on disk. A snapshot
// is fresh for the rest of the calendar day on which it was written.
//
// There is no locking: concurrent processes sharing a path race, and the
// last writer wins.
type Cache struct {
	path string
	now  func() time.Time
	log  zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used to report discarded snapshots.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates a Cache backed by the file at path.
func New(path string, opts ...Option) *Cache {
	c := &Cache{path: path, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the snapshot file location.
func (c *Cache) Path() string { return c.path }

// TryLoad returns the stored snapshot if the file exists and was last
// modified today. Time of day is ignored. A missing, stale or unreadable
// snapshot is reported as a miss (ok == false) with a nil error; only
// unexpected filesystem errors are returned.
func (c *Cache) TryLoad() (snap *model.Snapshot, ok bool, err error) {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if !sameDay(info.ModTime(), c.now()) {
		c.log.Debug().Str("path", c.path).Time("modified", info.ModTime()).Msg("snapshot is stale")
		return nil, false, nil
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var s model.Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("discarding unreadable snapshot")
		return nil, false, nil
	}
	return &s, true, nil
}

// Store overwrites the snapshot file. The data is written to a temporary
// file in the same directory and renamed into place, so readers never see
// a half-written snapshot.
func (c *Cache) Store(snap *model.Snapshot) (err error) {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
