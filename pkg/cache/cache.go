// Package cache keeps the last fetched registration set in a local BadgerDB so every analytics
// command does not have to page through the vendor API again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"warranty-analytics/pkg/models"
)

var (
	// ErrNoSnapshot means nothing was cached yet, or the entry expired.
	ErrNoSnapshot = errors.New("no cached registrations")
	// ErrStale means a snapshot exists but was fetched longer ago than the requested age.
	ErrStale = errors.New("cached registrations are stale")
)

var snapshotKey = []byte("registrations/snapshot")

// Config holds the cache location and entry lifetime.
type Config struct {
	// Dir is the BadgerDB directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	// TTL bounds how long Badger keeps a snapshot. Zero keeps it forever. It should exceed any
	// maxAge passed to Load, otherwise stale snapshots expire before they can be reported as stale.
	TTL time.Duration
}

// Snapshot is one cached registration set.
type Snapshot struct {
	FetchedAt     time.Time             `json:"fetchedAt"`
	Registrations []models.Registration `json:"registrations"`
}

// Store wraps the Badger database.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Open opens (creating if needed) the cache.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("cache dir is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Store{db: db, ttl: cfg.TTL, now: time.Now, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the cached snapshot.
func (s *Store) Save(regs []models.Registration, fetchedAt time.Time) error {
	data, err := json.Marshal(Snapshot{FetchedAt: fetchedAt.UTC(), Registrations: regs})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(snapshotKey, data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.logger.Info("registrations cached",
		zap.Int("count", len(regs)),
		zap.Time("fetched_at", fetchedAt))
	return nil
}

// Load returns the cached snapshot. Its age is measured against the wall clock, not against any
// analysis reference date. A maxAge of zero accepts any age.
func (s *Store) Load(maxAge time.Duration) (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	age := s.now().Sub(snap.FetchedAt)
	if maxAge > 0 && age > maxAge {
		return snap, ErrStale
	}
	s.logger.Debug("registrations loaded from cache",
		zap.Int("count", len(snap.Registrations)),
		zap.Duration("age", age))
	return snap, nil
}
