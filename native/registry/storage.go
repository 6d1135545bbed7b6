package registry

import (
	"errors"
	"fmt"
)

// storage abstracts the subset of state manager functionality required by the
// seller ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var sellerPrefix = []byte("market/seller/")

func sellerKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", sellerPrefix, addr))
}

// Ledger persists seller registrations.
type Ledger struct {
	store storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// Get retrieves the seller record for the supplied address.
func (l *Ledger) Get(addr [20]byte) (*Seller, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, errors.New("registry: storage unavailable")
	}
	stored := new(Seller)
	ok, err := l.store.KVGet(sellerKey(addr), stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return stored, true, nil
}

// Put stores the seller record, overwriting any previous version.
func (l *Ledger) Put(seller *Seller) error {
	if l == nil || l.store == nil {
		return errors.New("registry: storage unavailable")
	}
	if seller == nil {
		return errors.New("registry: seller required")
	}
	if err := seller.Validate(); err != nil {
		return err
	}
	return l.store.KVPut(sellerKey(seller.Addr), seller)
}
