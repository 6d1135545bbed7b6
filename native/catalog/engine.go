package catalog

import (
	"errors"
	"math/big"
	"strings"

	"marketledger/core/events"
	"marketledger/core/types"
	"marketledger/native/registry"
)

var errNilLedger = errors.New("catalog engine: ledger not configured")

// sellerState exposes the registry lookups the catalog needs to gate
// listings.
type sellerState interface {
	Get(addr [20]byte) (*registry.Seller, bool, error)
}

type catalogEvent struct {
	evt *types.Event
}

func (e catalogEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e catalogEvent) Event() *types.Event { return e.evt }

// Engine wires the product catalog business logic with persistence, the
// seller registry gate and event emission.
type Engine struct {
	ledger  *Ledger
	sellers sellerState
	emitter events.Emitter
}

// NewEngine constructs an engine backed by the provided ledgers with a no-op
// emitter.
func NewEngine(ledger *Ledger, sellers sellerState) *Engine {
	return &Engine{ledger: ledger, sellers: sellers, emitter: events.NoopEmitter{}}
}

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
	e.emitter.Emit(catalogEvent{evt: evt})
}

// Create lists a new product for the calling seller. The caller must be a
// registered, unblocked seller and the price must be at least one smallest
// token unit.
func (e *Engine) Create(caller [20]byte, name, image string, price *big.Int, description string, inventory uint64) (*Product, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	if e.sellers == nil {
		return nil, errors.New("catalog engine: seller registry not configured")
	}
	seller, exists, err := e.sellers.Get(caller)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, registry.ErrNotRegistered
	}
	if seller.Blocked {
		return nil, registry.ErrBlocked
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	id, err := e.ledger.NextID()
	if err != nil {
		return nil, err
	}
	product := &Product{
		ID:          id,
		Seller:      caller,
		Name:        strings.TrimSpace(name),
		ImageURI:    strings.TrimSpace(image),
		Price:       new(big.Int).Set(price),
		Description: description,
		Inventory:   inventory,
	}
	if err := e.ledger.Put(product); err != nil {
		return nil, err
	}
	e.emit(newListedEvent(product))
	return product.Clone(), nil
}

// Get returns the product record for the supplied id.
func (e *Engine) Get(id uint64) (*Product, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	product, exists, err := e.ledger.Get(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return product, nil
}
