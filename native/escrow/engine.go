package escrow

import (
	"errors"
	"math/big"

	"marketledger/core/events"
	"marketledger/core/types"
	"marketledger/native/catalog"
	"marketledger/native/fees"
	"marketledger/native/registry"
)

var (
	errNilLedger = errors.New("escrow engine: purchase ledger not configured")
	errNilTokens = errors.New("escrow engine: token ledger not configured")
	errNilVault  = errors.New("escrow engine: vault not configured")
)

// productState exposes the catalog persistence the engine mutates when
// inventory moves.
type productState interface {
	Get(id uint64) (*catalog.Product, bool, error)
	Put(product *catalog.Product) error
}

// sellerState exposes the registry persistence the engine mutates when a
// purchase is confirmed.
type sellerState interface {
	Get(addr [20]byte) (*registry.Seller, bool, error)
	Put(seller *registry.Seller) error
}

// tokenLedger is the slice of the value-transfer service the engine drives.
// TransferFrom pulls escrow funding from the buyer, Transfer pays out of the
// vault. Both fail upstream on insufficient balance or allowance and those
// failures propagate untouched.
type tokenLedger interface {
	TransferFrom(owner, spender, to [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
}

// feeTreasury receives the platform's cut of every settlement.
type feeTreasury interface {
	Accrue(amount *big.Int) error
}

// reporter counts reported cancellations against the seller.
type reporter interface {
	ReportCancellation(seller [20]byte) (*registry.Seller, bool, error)
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine owns the purchase state machine and every money movement attached to
// it: escrow capture on purchase, settlement on confirmation, the penalty
// split on cancellation and fee accrual on both terminal paths. All
// collaborators are injected so the engine itself stays deterministic.
type Engine struct {
	purchases *Ledger
	products  productState
	sellers   sellerState
	tokens    tokenLedger
	treasury  feeTreasury
	reporter  reporter
	emitter   events.Emitter
	vault     [20]byte
}

// NewEngine creates an escrow engine with a no-op emitter. Callers wire the
// collaborators via the Set helpers before use.
func NewEngine(purchases *Ledger) *Engine {
	return &Engine{purchases: purchases, emitter: events.NoopEmitter{}}
}

// SetProducts configures the catalog backend.
func (e *Engine) SetProducts(products productState) { e.products = products }

// SetSellers configures the registry backend.
func (e *Engine) SetSellers(sellers sellerState) { e.sellers = sellers }

// SetTokens configures the value-transfer service.
func (e *Engine) SetTokens(tokens tokenLedger) { e.tokens = tokens }

// SetTreasury configures the fee treasury credited on settlement.
func (e *Engine) SetTreasury(treasury feeTreasury) { e.treasury = treasury }

// SetReporter configures the reputation engine counting cancellation reports.
func (e *Engine) SetReporter(r reporter) { e.reporter = r }

// SetVault configures the module custody address holding escrowed funds.
func (e *Engine) SetVault(vault [20]byte) { e.vault = vault }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: evt})
}

func (e *Engine) ready() error {
	if e == nil || e.purchases == nil {
		return errNilLedger
	}
	if e.tokens == nil {
		return errNilTokens
	}
	if e.vault == ([20]byte{}) {
		return errNilVault
	}
	if e.products == nil {
		return errors.New("escrow engine: catalog not configured")
	}
	if e.sellers == nil {
		return errors.New("escrow engine: registry not configured")
	}
	if e.treasury == nil {
		return errors.New("escrow engine: fee treasury not configured")
	}
	return nil
}

// Purchase captures the product price from the buyer into the module vault
// and records the purchase as paid. The product must exist with inventory
// remaining, the buyer must not be the seller, and no unresolved purchase may
// exist for the pair. A cancelled record is overwritten by a fresh purchase.
func (e *Engine) Purchase(productID uint64, buyer [20]byte) (*Purchase, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	product, exists, err := e.products.Get(productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, catalog.ErrNotFound
	}
	if product.Inventory == 0 {
		return nil, ErrOutOfStock
	}
	if buyer == product.Seller {
		return nil, ErrSellerOwnProduct
	}
	existing, held, err := e.purchases.Get(productID, buyer)
	if err != nil {
		return nil, err
	}
	if held && existing.Status != PurchaseCanceled {
		return nil, ErrAlreadyPurchased
	}
	if err := e.tokens.TransferFrom(buyer, e.vault, e.vault, product.Price); err != nil {
		return nil, err
	}
	product.Inventory--
	if err := e.products.Put(product); err != nil {
		return nil, err
	}
	purchase := &Purchase{
		ProductID: productID,
		Buyer:     buyer,
		Seller:    product.Seller,
		Price:     new(big.Int).Set(product.Price),
		Status:    PurchasePaid,
	}
	if err := e.purchases.Put(purchase); err != nil {
		return nil, err
	}
	e.emit(newPurchasedEvent(purchase, product))
	return purchase.Clone(), nil
}

// Confirm settles the escrow in favour of the seller: the confirmation fee
// accrues to the treasury and the remainder pays out of the vault. The caller
// must be the buyer of record and the purchase must still be paid.
func (e *Engine) Confirm(productID uint64, caller [20]byte) (*Purchase, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	purchase, held, err := e.purchases.Get(productID, caller)
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, ErrPurchaseNotFound
	}
	switch purchase.Status {
	case PurchaseConfirmed:
		return nil, ErrAlreadyConfirmed
	case PurchaseCanceled:
		return nil, ErrAlreadyCanceled
	}
	fee, payout := fees.Split(purchase.Price, ConfirmFeeBps)
	if err := e.tokens.Transfer(e.vault, purchase.Seller, payout); err != nil {
		return nil, err
	}
	if err := e.treasury.Accrue(fee); err != nil {
		return nil, err
	}
	purchase.Status = PurchaseConfirmed
	if err := e.purchases.Put(purchase); err != nil {
		return nil, err
	}
	seller, exists, err := e.sellers.Get(purchase.Seller)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, registry.ErrNotRegistered
	}
	seller.ConfirmedPurchases++
	if err := e.sellers.Put(seller); err != nil {
		return nil, err
	}
	e.emit(newConfirmedEvent(purchase, fee, payout))
	return purchase.Clone(), nil
}

// Cancel unwinds a paid purchase: the buyer is refunded minus the penalty,
// the seller keeps the penalty minus the cancellation fee, and the fee
// accrues to the treasury. Inventory is not restored; refunded stock is
// treated as consumed. Cancellation after confirmation is categorically
// forbidden.
func (e *Engine) Cancel(productID uint64, caller [20]byte) (*Purchase, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	purchase, held, err := e.purchases.Get(productID, caller)
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, ErrPurchaseNotFound
	}
	switch purchase.Status {
	case PurchaseConfirmed:
		return nil, ErrAlreadySold
	case PurchaseCanceled:
		return nil, ErrAlreadyCanceled
	}
	penalty, refund := fees.Split(purchase.Price, PenaltyBps)
	cancelFee, sellerShare := fees.Split(penalty, CancelFeeBps)
	if err := e.tokens.Transfer(e.vault, purchase.Buyer, refund); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(e.vault, purchase.Seller, sellerShare); err != nil {
		return nil, err
	}
	if err := e.treasury.Accrue(cancelFee); err != nil {
		return nil, err
	}
	purchase.Status = PurchaseCanceled
	if err := e.purchases.Put(purchase); err != nil {
		return nil, err
	}
	e.emit(newCanceledEvent(purchase, refund, sellerShare, cancelFee))
	return purchase.Clone(), nil
}

// ReportCanceled files the one-time cancellation report for a cancelled
// purchase, counting it against the seller's reputation. Re-reporting the
// same cancellation is rejected; the threshold transition itself lives in the
// reputation engine.
func (e *Engine) ReportCanceled(productID uint64, caller [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if e.reporter == nil {
		return false, errors.New("escrow engine: reporter not configured")
	}
	purchase, held, err := e.purchases.Get(productID, caller)
	if err != nil {
		return false, err
	}
	if !held {
		return false, ErrPurchaseNotFound
	}
	if purchase.Status != PurchaseCanceled {
		return false, ErrNotCanceled
	}
	if purchase.Reported {
		return false, ErrAlreadyReported
	}
	purchase.Reported = true
	if err := e.purchases.Put(purchase); err != nil {
		return false, err
	}
	_, blocked, err := e.reporter.ReportCancellation(purchase.Seller)
	if err != nil {
		return false, err
	}
	return blocked, nil
}

// SellerDetails reveals the seller's registration record to a caller holding
// a paid or confirmed purchase for the product.
func (e *Engine) SellerDetails(productID uint64, caller [20]byte) (*registry.Seller, error) {
	if e == nil || e.purchases == nil {
		return nil, errNilLedger
	}
	if e.sellers == nil {
		return nil, errors.New("escrow engine: registry not configured")
	}
	purchase, held, err := e.purchases.Get(productID, caller)
	if err != nil {
		return nil, err
	}
	if !held || (purchase.Status != PurchasePaid && purchase.Status != PurchaseConfirmed) {
		return nil, ErrNoPaymentForProduct
	}
	seller, exists, err := e.sellers.Get(purchase.Seller)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, registry.ErrNotRegistered
	}
	return seller, nil
}

// GetPurchase returns the purchase record for the pair. Unknown pairs yield
// ok=false without an error.
func (e *Engine) GetPurchase(productID uint64, buyer [20]byte) (*Purchase, bool, error) {
	if e == nil || e.purchases == nil {
		return nil, false, errNilLedger
	}
	return e.purchases.Get(productID, buyer)
}
