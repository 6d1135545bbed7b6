package escrow

import (
	"errors"
	"math/big"
)

// Fee ratios applied by the purchase ledger, in basis points. Confirmation
// skims 5% of the price; cancellation withholds a 10% penalty of which 3%
// goes to the treasury and the rest compensates the seller.
const (
	ConfirmFeeBps uint32 = 500
	PenaltyBps    uint32 = 1000
	CancelFeeBps  uint32 = 300
)

var (
	// ErrOutOfStock marks purchase attempts on products with no remaining
	// inventory.
	ErrOutOfStock = errors.New("escrow: product out of stock")
	// ErrSellerOwnProduct marks sellers attempting to buy their own listing.
	ErrSellerOwnProduct = errors.New("escrow: seller cannot buy own product")
	// ErrAlreadyPurchased marks purchase attempts while an unresolved
	// purchase exists for the same product and buyer.
	ErrAlreadyPurchased = errors.New("escrow: product already purchased")
	// ErrPurchaseNotFound marks operations on a purchase the caller does not
	// hold.
	ErrPurchaseNotFound = errors.New("escrow: purchase not found")
	// ErrAlreadyConfirmed marks repeat confirmations.
	ErrAlreadyConfirmed = errors.New("escrow: purchase already confirmed")
	// ErrAlreadySold marks cancellation attempts after confirmation.
	ErrAlreadySold = errors.New("escrow: purchase already sold")
	// ErrAlreadyCanceled marks operations on a cancelled purchase.
	ErrAlreadyCanceled = errors.New("escrow: purchase already canceled")
	// ErrNotCanceled marks report attempts on purchases that were never
	// cancelled.
	ErrNotCanceled = errors.New("escrow: purchase not canceled")
	// ErrAlreadyReported marks repeat reports of the same cancellation.
	ErrAlreadyReported = errors.New("escrow: cancellation already reported")
	// ErrNoPaymentForProduct gates seller contact details behind a paid
	// purchase.
	ErrNoPaymentForProduct = errors.New("escrow: no payment for product")
)

// PurchaseStatus represents the lifecycle states of a purchase record. The
// absence of a record is the implicit initial state.
type PurchaseStatus uint8

const (
	PurchaseUnknown PurchaseStatus = iota
	PurchasePaid
	PurchaseConfirmed
	PurchaseCanceled
)

// Valid reports whether the status value is within the supported range.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchasePaid, PurchaseConfirmed, PurchaseCanceled:
		return true
	default:
		return false
	}
}

func (s PurchaseStatus) String() string {
	switch s {
	case PurchasePaid:
		return "paid"
	case PurchaseConfirmed:
		return "confirmed"
	case PurchaseCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Purchase tracks the escrow state for a single (product, buyer) pair. The
// price is snapshotted at purchase time and drives every settlement split.
type Purchase struct {
	ProductID uint64
	Buyer     [20]byte
	Seller    [20]byte
	Price     *big.Int
	Status    PurchaseStatus
	Reported  bool
}

// Clone returns a deep copy of the purchase so callers can safely mutate the
// copy without affecting the stored instance.
func (p *Purchase) Clone() *Purchase {
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

// Validate ensures the purchase payload is well formed before persistence.
func (p *Purchase) Validate() error {
	if p == nil {
		return errors.New("escrow: purchase nil")
	}
	if p.ProductID == 0 {
		return errors.New("escrow: product id required")
	}
	if p.Buyer == ([20]byte{}) {
		return errors.New("escrow: buyer required")
	}
	if p.Seller == ([20]byte{}) {
		return errors.New("escrow: seller required")
	}
	if p.Price == nil || p.Price.Sign() <= 0 {
		return errors.New("escrow: price must be positive")
	}
	if !p.Status.Valid() {
		return errors.New("escrow: invalid purchase status")
	}
	return nil
}
