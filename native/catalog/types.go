package catalog

import (
	"errors"
	"math/big"
	"strings"
)

var (
	// ErrNotFound marks lookups for unknown product ids.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrInvalidPrice marks listings priced below one smallest token unit.
	ErrInvalidPrice = errors.New("catalog: price must be positive")
)

// Product captures a seller-owned listing. Price and seller are immutable
// after creation; inventory only decreases and the record is never deleted.
type Product struct {
	ID          uint64
	Seller      [20]byte
	Name        string
	ImageURI    string
	Price       *big.Int
	Description string
	Inventory   uint64
}

// Clone returns a deep copy of the product so callers can safely mutate the
// copy without affecting the stored instance.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Price != nil {
		clone.Price = new(big.Int).Set(p.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// Validate ensures the listing payload is well formed.
func (p *Product) Validate() error {
	if p == nil {
		return errors.New("catalog: product nil")
	}
	if p.ID == 0 {
		return errors.New("catalog: product id required")
	}
	if p.Seller == ([20]byte{}) {
		return errors.New("catalog: seller required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("catalog: product name required")
	}
	if p.Price == nil || p.Price.Sign() <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// InStock reports whether at least one unit remains.
func (p *Product) InStock() bool {
	return p != nil && p.Inventory > 0
}
