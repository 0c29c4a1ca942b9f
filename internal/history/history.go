package history

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName    = "history"
	dbPermissions = 0600
	recordSize    = 16
)

// Record is the usage history of one application.
type Record struct {
	UseCount uint64
	LastUsed int64 // Unix seconds, 0 if never used
}

// PersistenceError reports a failure to read or write the history file.
// It is never fatal: the store keeps working in memory.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store maps application IDs to their usage history and mirrors the mapping to a
// bbolt file. It is owned by a single session and is not safe for concurrent use.
type Store struct {
	path    string
	db      *bbolt.DB
	entries map[string]Record
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout sets how long opening the database waits for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// Load opens the history database at path, creating it if needed, and reads
// every record. The returned store is always usable. A non-nil error is a
// *PersistenceError explaining why the store started empty.
func Load(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]Record),
		timeout: time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.open(); err != nil {
		return s, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	entries, err := s.read()
	if err != nil {
		return s, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	s.entries = entries
	s.logger.Debug("history loaded", "path", path, "entries", len(entries))

	return s, nil
}

// Get returns the use count and last-use timestamp for id, or zeros if unknown.
func (s *Store) Get(id string) (uint64, int64) {
	r := s.entries[id]
	return r.UseCount, r.LastUsed
}

// Len returns the number of applications with recorded history.
func (s *Store) Len() int {
	return len(s.entries)
}

// RecordUse counts one launch of id at now and writes the whole mapping to disk.
// A write failure is logged; the in-memory update is kept either way.
func (s *Store) RecordUse(id string, now time.Time) {
	r := s.entries[id]
	r.UseCount++
	r.LastUsed = now.Unix()
	s.entries[id] = r
	s.logger.Debug("history update", "id", id, "count", r.UseCount, "last_used", r.LastUsed)

	if err := s.save(); err != nil {
		s.logger.Warn("could not save history", "err", &PersistenceError{Op: "save", Path: s.path, Err: err})
	}
}

// Close closes the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(s.path, dbPermissions, &bbolt.Options{Timeout: s.timeout})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) read() (map[string]Record, error) {
	entries := make(map[string]Record)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			r, err := decode(v)
			if err != nil {
				return fmt.Errorf("record %q: %w", k, err)
			}
			entries[string(k)] = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// save replaces the bucket contents with the in-memory mapping.
func (s *Store) save() error {
	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to clear bucket: %w", err)
		}
		b, err := tx.CreateBucket([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		for id, r := range s.entries {
			if err := b.Put([]byte(id), encode(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

func encode(r Record) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[:8], r.UseCount)
	binary.BigEndian.PutUint64(buf[8:], uint64(r.LastUsed))
	return buf
}

func decode(v []byte) (Record, error) {
	if len(v) != recordSize {
		return Record{}, fmt.Errorf("bad record length %d", len(v))
	}
	return Record{
		UseCount: binary.BigEndian.Uint64(v[:8]),
		LastUsed: int64(binary.BigEndian.Uint64(v[8:])),
	}, nil
}
