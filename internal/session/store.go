package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Store is a string key-value store holding session state
type Store interface {
	// Get returns the value for key; false when absent or unreadable
	Get(key string) (string, bool)
	Put(key, value string) error
	Delete(key string) error
	Close() error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Put stores value under key
func (m *MemoryStore) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

// LevelDBStore is a Store backed by leveldb
type LevelDBStore struct {
	db     *leveldb.DB
	logger zerolog.Logger
}

// OpenLevelDB opens or creates a file-backed store at path
func OpenLevelDB(path string, logger zerolog.Logger) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if leveldberrors.IsCorrupted(err) {
		logger.Warn().Err(err).Str("path", path).Msg("session store corrupted, recovering")
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return NewLevelDBStore(db, logger), nil
}

// OpenInMemory opens a leveldb store on memory storage
func OpenInMemory(logger zerolog.Logger) (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return NewLevelDBStore(db, logger), nil
}

// NewLevelDBStore wraps an open database; Close closes it
func NewLevelDBStore(db *leveldb.DB, logger zerolog.Logger) *LevelDBStore {
	return &LevelDBStore{
		db:     db,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Get returns the value for key. Read errors are reported as absent.
func (s *LevelDBStore) Get(key string) (string, bool) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			s.logger.Debug().Err(err).Str("key", key).Msg("session read failed")
		}
		return "", false
	}
	return string(value), true
}

// Put stores value under key
func (s *LevelDBStore) Put(key, value string) error {
	if err := s.db.Put([]byte(key), []byte(value), nil); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *LevelDBStore) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
