package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	bolt "go.etcd.io/bbolt"
)

// Database is a generic interface for a key-value store. The issuance engine
// only requires point reads, point writes and an atomic multi-key batch
// commit; any backend that can provide those three primitives will do.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, bool, error)
	// Write applies every entry in the batch atomically: either all entries
	// persist or none do.
	Write(batch *Batch) error
	Close() error
}

// Batch accumulates writes that must land in a single atomic commit.
type Batch struct {
	entries []batchEntry
}

type batchEntry struct {
	key   []byte
	value []byte
}

// Put schedules a key/value pair for the atomic commit.
func (b *Batch) Put(key, value []byte) {
	b.entries = append(b.entries, batchEntry{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

// Len reports the number of scheduled entries.
func (b *Batch) Len() int {
	return len(b.entries)
}

// --- In-memory DB (for testing) ---

type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (db *MemDB) Write(batch *Batch) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, entry := range batch.entries {
		db.data[string(entry.key)] = append([]byte(nil), entry.value...)
	}
	return nil
}

func (db *MemDB) Close() error {
	return nil
}

// --- Persistent DB backed by LevelDB ---

type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, bool, error) {
	value, err := ldb.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (ldb *LevelDB) Write(batch *Batch) error {
	native := new(leveldb.Batch)
	for _, entry := range batch.entries {
		native.Put(entry.key, entry.value)
	}
	return ldb.db.Write(native, nil)
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// --- Persistent DB backed by bbolt ---

var boltBucket = []byte("bondmint")

type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB creates or opens a bbolt database file at the specified path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

func (bdb *BoltDB) Put(key []byte, value []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (bdb *BoltDB) Get(key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := bdb.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(boltBucket).Get(key)
		if stored != nil {
			// bbolt returns nil for absent keys but a non-nil empty slice
			// for empty values, so existence is tracked separately.
			found = true
			value = append([]byte(nil), stored...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (bdb *BoltDB) Write(batch *Batch) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, entry := range batch.entries {
			if err := bucket.Put(entry.key, entry.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bdb *BoltDB) Close() error {
	return bdb.db.Close()
}
