package registry

import (
	"errors"
	"strings"

	"marketledger/core/events"
	"marketledger/core/types"
)

var errNilLedger = errors.New("registry engine: ledger not configured")

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// Engine wires the seller registry business logic with persistence and event
// emission. The owner address is the single administrator authorised for
// block and unblock transitions.
type Engine struct {
	ledger  *Ledger
	emitter events.Emitter
	owner   [20]byte
}

// NewEngine constructs an engine backed by the provided ledger with a no-op
// emitter. Callers can override the emitter via SetEmitter.
func NewEngine(ledger *Ledger) *Engine {
	return &Engine{ledger: ledger, emitter: events.NoopEmitter{}}
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

// SetOwner configures the administrator principal.
func (e *Engine) SetOwner(owner [20]byte) { e.owner = owner }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(registryEvent{evt: evt})
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if e.owner == ([20]byte{}) || caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

// Register creates the seller record for the caller. Registering the same
// identity twice fails and has no effect on state.
func (e *Engine) Register(caller [20]byte, name, uri, location, contact string) (*Seller, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	_, exists, err := e.ledger.Get(caller)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}
	seller := &Seller{
		Addr:     caller,
		Name:     strings.TrimSpace(name),
		URI:      strings.TrimSpace(uri),
		Location: strings.TrimSpace(location),
		Contact:  strings.TrimSpace(contact),
	}
	if err := e.ledger.Put(seller); err != nil {
		return nil, err
	}
	e.emit(newRegisteredEvent(seller))
	return seller.Clone(), nil
}

// Get returns the registration record for the supplied seller.
func (e *Engine) Get(seller [20]byte) (*Seller, bool, error) {
	if e == nil || e.ledger == nil {
		return nil, false, errNilLedger
	}
	return e.ledger.Get(seller)
}

// BlockByOwner marks the seller as blocked with the supplied reason. Only the
// administrator may invoke the transition.
func (e *Engine) BlockByOwner(caller, seller [20]byte, reason string) error {
	if e == nil || e.ledger == nil {
		return errNilLedger
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	record, exists, err := e.ledger.Get(seller)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotRegistered
	}
	record.Blocked = true
	record.BlockReason = strings.TrimSpace(reason)
	if err := e.ledger.Put(record); err != nil {
		return err
	}
	e.emit(newBlockedEvent(record))
	return nil
}

// Unblock clears the blocked flag and reason for the seller and resets the
// report count so a rehabilitated seller is not instantly re-blocked. Only
// the administrator may invoke the transition.
func (e *Engine) Unblock(caller, seller [20]byte) error {
	if e == nil || e.ledger == nil {
		return errNilLedger
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	record, exists, err := e.ledger.Get(seller)
	if err != nil {
		return err
	}
	if !exists || !record.Blocked {
		return ErrNotBlocked
	}
	record.Blocked = false
	record.BlockReason = ""
	record.ReportCount = 0
	if err := e.ledger.Put(record); err != nil {
		return err
	}
	e.emit(newUnblockedEvent(record))
	return nil
}

// BlockedDetails returns the registration record including the block reason.
// It fails unless the seller is currently blocked.
func (e *Engine) BlockedDetails(seller [20]byte) (*Seller, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	record, exists, err := e.ledger.Get(seller)
	if err != nil {
		return nil, err
	}
	if !exists || !record.Blocked {
		return nil, ErrNotBlocked
	}
	return record, nil
}

// IsBlocked reports whether the seller is currently blocked. Unknown sellers
// are not blocked.
func (e *Engine) IsBlocked(seller [20]byte) (bool, error) {
	if e == nil || e.ledger == nil {
		return false, errNilLedger
	}
	record, exists, err := e.ledger.Get(seller)
	if err != nil {
		return false, err
	}
	return exists && record.Blocked, nil
}
