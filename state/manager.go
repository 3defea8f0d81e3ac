package state

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"bondmint/native/issuance"
	"bondmint/storage"
)

// Manager wraps a key-value database with RLP record encoding and an atomic
// multi-key commit. It satisfies the Storage interface the issuance module
// declares for itself.
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVGet decodes the record stored under key into out. The boolean reports
// whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: manager not initialised")
	}
	raw, ok, err := m.db.Get(key)
	if err != nil {
		return false, fmt.Errorf("state: get %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	if err := m.db.Put(key, encoded); err != nil {
		return fmt.Errorf("state: put %q: %w", key, err)
	}
	return nil
}

// KVWrite encodes every entry and applies them in one atomic batch. The
// context is checked before the commit; once the batch is handed to the
// backend it runs to completion so a partial settle can never persist.
func (m *Manager) KVWrite(ctx context.Context, entries ...issuance.KV) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	batch := new(storage.Batch)
	for _, entry := range entries {
		encoded, err := rlp.EncodeToBytes(entry.Value)
		if err != nil {
			return fmt.Errorf("state: encode %q: %w", entry.Key, err)
		}
		batch.Put(entry.Key, encoded)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: write batch: %w", err)
	}
	return nil
}
