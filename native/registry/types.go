package registry

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyRegistered marks duplicate registrations for one identity.
	ErrAlreadyRegistered = errors.New("registry: seller already registered")
	// ErrNotRegistered marks lookups for unknown seller identities.
	ErrNotRegistered = errors.New("registry: seller not registered")
	// ErrNotBlocked is returned when an operation requires the seller to be
	// currently blocked.
	ErrNotBlocked = errors.New("registry: seller not blocked")
	// ErrBlocked is returned when a blocked seller attempts a gated action.
	ErrBlocked = errors.New("registry: seller blocked")
	// ErrUnauthorized marks administrator-only calls from other principals.
	ErrUnauthorized = errors.New("registry: unauthorized")
)

// Seller captures the registration record for a marketplace seller. Identity
// and contact metadata are immutable after registration; only the block flags
// and counters mutate over the seller's lifetime.
type Seller struct {
	Addr               [20]byte
	Name               string
	URI                string
	Location           string
	Contact            string
	Blocked            bool
	BlockReason        string
	ReportCount        uint64
	RatingCount        uint64
	ConfirmedPurchases uint64
}

// Clone returns a copy of the seller record so callers can safely mutate the
// copy without affecting the stored instance.
func (s *Seller) Clone() *Seller {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Validate ensures the registration payload is well formed.
func (s *Seller) Validate() error {
	if s == nil {
		return errors.New("registry: seller nil")
	}
	if s.Addr == ([20]byte{}) {
		return errors.New("registry: seller address required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("registry: seller name required")
	}
	if s.RatingCount > s.ConfirmedPurchases {
		return errors.New("registry: rating count exceeds confirmed purchases")
	}
	return nil
}
