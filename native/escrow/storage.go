package escrow

import (
	"errors"
	"fmt"
)

// storage abstracts the subset of state manager functionality required by the
// purchase ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var purchasePrefix = []byte("market/purchase/")

func purchaseKey(productID uint64, buyer [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%d/%x", purchasePrefix, productID, buyer))
}

// Ledger persists purchase records keyed by (product id, buyer).
type Ledger struct {
	store storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// Get retrieves the purchase record for the supplied pair.
func (l *Ledger) Get(productID uint64, buyer [20]byte) (*Purchase, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, errors.New("escrow: storage unavailable")
	}
	stored := new(Purchase)
	ok, err := l.store.KVGet(purchaseKey(productID, buyer), stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return stored, true, nil
}

// Put stores the purchase record, overwriting any previous version for the
// same pair.
func (l *Ledger) Put(purchase *Purchase) error {
	if l == nil || l.store == nil {
		return errors.New("escrow: storage unavailable")
	}
	if purchase == nil {
		return errors.New("escrow: purchase required")
	}
	if err := purchase.Validate(); err != nil {
		return err
	}
	return l.store.KVPut(purchaseKey(purchase.ProductID, purchase.Buyer), purchase)
}
