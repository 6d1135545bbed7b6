package state

import (
	"fmt"
	"sort"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"marketledger/storage"
)

// Manager provides the key-value state layer shared by every native module.
// Values are RLP encoded and keys are hashed with keccak256 before touching
// the backing database.
//
// Mutations accumulate in an in-memory overlay until Commit flushes them to
// the backing store. Reset discards the overlay, rolling back every mutation
// performed since the last commit. The overlay is what gives the ledger its
// all-or-nothing operation semantics: an aborted operation leaves no trace.
type Manager struct {
	mu      sync.RWMutex
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string][]byte),
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256 before insertion.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlay[string(kvKey(key))] = encoded
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state. Pending overlay writes take precedence over committed
// values so an in-flight operation reads its own mutations.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	hashed := string(kvKey(key))
	m.mu.RLock()
	data, pending := m.overlay[hashed]
	m.mu.RUnlock()
	if !pending {
		stored, err := m.db.Get([]byte(hashed))
		if err != nil {
			return false, err
		}
		data = stored
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Commit flushes the overlay to the backing database in deterministic key
// order and clears it.
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.overlay))
	for k := range m.overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.db.Put([]byte(k), m.overlay[k]); err != nil {
			return err
		}
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Reset discards every pending mutation since the last commit.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlay = make(map[string][]byte)
}

// Pending reports the number of uncommitted mutations. Primarily used by
// tests asserting rollback behaviour.
func (m *Manager) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.overlay)
}
