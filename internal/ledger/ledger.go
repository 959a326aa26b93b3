// Package ledger persists per-path index state and the set of watched roots.
// The ledger is the source of truth for incremental change detection: a row
// exists iff the file's chunks are currently in the vector store.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Key prefixes for the two persisted sets.
const (
	recordPrefix = "filerec:"
	rootPrefix   = "root:"
)

// Record is one ledger row. MTime is the file modification time in unix
// nanoseconds; equality on (MTime, Size) drives change detection.
type Record struct {
	Path      string    `json:"path"`
	MTime     int64     `json:"mtime"`
	Size      int64     `json:"size"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Ledger wraps a BadgerDB instance holding records and roots.
type Ledger struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the ledger database at filePath, creating the directory if
// needed. With inMemory set, state lives only for the process lifetime
// (used by tests and ephemeral runs).
func Open(filePath string, inMemory bool) (*Ledger, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0o755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Ledger{db: db, logger: slog.Default()}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func recordKey(path string) []byte {
	return []byte(recordPrefix + path)
}

func rootKey(root string) []byte {
	return []byte(rootPrefix + root)
}

// Get returns the record for path, or ErrNotFound.
func (l *Ledger) Get(path string) (*Record, error) {
	var rec Record
	err := l.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(recordKey(path))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert writes the record, replacing any existing row for the path.
func (l *Ledger) Upsert(rec Record) error {
	if rec.Path == "" {
		return ErrEmptyPath
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *badger.Txn) error {
		return tx.Set(recordKey(rec.Path), val)
	})
}

// Delete removes the row for path. Deleting an absent path is not an error.
func (l *Ledger) Delete(path string) error {
	return l.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(recordKey(path))
	})
}

// All returns every record keyed by path.
func (l *Ledger) All() (map[string]Record, error) {
	records := make(map[string]Record)
	err := l.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records[rec.Path] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// NormalizeRoot resolves a root to an absolute, cleaned path without a
// trailing separator, so equal directories compare equal.
func NormalizeRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	clean := filepath.Clean(abs)
	if len(clean) > 1 {
		clean = strings.TrimRight(clean, string(filepath.Separator))
	}
	return clean, nil
}

// AddRoot normalizes and persists a watched root. Adding an already-known
// root is a no-op; the stored set never contains duplicates.
func (l *Ledger) AddRoot(root string) (string, error) {
	normalized, err := NormalizeRoot(root)
	if err != nil {
		return "", err
	}
	err = l.db.Update(func(tx *badger.Txn) error {
		return tx.Set(rootKey(normalized), []byte{})
	})
	if err != nil {
		return "", err
	}
	return normalized, nil
}

// RemoveRoot deletes a watched root from the set.
func (l *Ledger) RemoveRoot(root string) error {
	normalized, err := NormalizeRoot(root)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(rootKey(normalized))
	})
}

// Roots returns the watched roots sorted for stable output.
func (l *Ledger) Roots() ([]string, error) {
	var roots []string
	err := l.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(rootPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			roots = append(roots, string(key[len(rootPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(roots)
	return roots, nil
}
