package catalog

import (
	"errors"
	"fmt"
)

// storage abstracts the subset of state manager functionality required by the
// product ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	productPrefix = []byte("market/product/")
	nextIDKey     = []byte("market/product/next-id")
)

func productKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", productPrefix, id))
}

// Ledger persists product listings and the monotonically increasing product
// id counter.
type Ledger struct {
	store storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// NextID reserves and returns the next product identifier. Ids start at 1 and
// are never reused.
func (l *Ledger) NextID() (uint64, error) {
	if l == nil || l.store == nil {
		return 0, errors.New("catalog: storage unavailable")
	}
	var counter uint64
	if _, err := l.store.KVGet(nextIDKey, &counter); err != nil {
		return 0, err
	}
	counter++
	if err := l.store.KVPut(nextIDKey, counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// Get retrieves the product record for the supplied id.
func (l *Ledger) Get(id uint64) (*Product, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, errors.New("catalog: storage unavailable")
	}
	stored := new(Product)
	ok, err := l.store.KVGet(productKey(id), stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return stored, true, nil
}

// Put stores the product record, overwriting any previous version.
func (l *Ledger) Put(product *Product) error {
	if l == nil || l.store == nil {
		return errors.New("catalog: storage unavailable")
	}
	if product == nil {
		return errors.New("catalog: product required")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	return l.store.KVPut(productKey(product.ID), product)
}
