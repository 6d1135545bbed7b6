package reputation

import (
	"errors"

	"marketledger/core/events"
	"marketledger/core/types"
	"marketledger/native/registry"
)

// BlockThreshold is the number of distinct reported cancellations that
// triggers automatic seller blocking.
const BlockThreshold uint64 = 3

// DefaultBlockReason is recorded when the report threshold trips the block.
const DefaultBlockReason = "cancellation report threshold reached"

var (
	// ErrNoConfirmedPurchases marks rating attempts against sellers with no
	// confirmed purchases at all.
	ErrNoConfirmedPurchases = errors.New("reputation: seller has no confirmed purchases")
	// ErrRatingExceeded marks rating attempts past the confirmed-purchase
	// quota.
	ErrRatingExceeded = errors.New("reputation: rating quota exceeded")
)

// sellerState exposes the registry persistence the engine mutates.
type sellerState interface {
	Get(addr [20]byte) (*registry.Seller, bool, error)
	Put(seller *registry.Seller) error
}

type reputationEvent struct {
	evt *types.Event
}

func (e reputationEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e reputationEvent) Event() *types.Event { return e.evt }

// Engine counts cancellation reports per seller, auto-blocks at the fixed
// threshold and enforces the rating quota. Report counting is driven by the
// escrow ledger; ratings arrive directly from buyers.
type Engine struct {
	sellers   sellerState
	emitter   events.Emitter
	threshold uint64
}

// NewEngine constructs an engine over the supplied seller state with the
// default block threshold and a no-op emitter.
func NewEngine(sellers sellerState) *Engine {
	return &Engine{sellers: sellers, emitter: events.NoopEmitter{}, threshold: BlockThreshold}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetThreshold overrides the block threshold. Primarily intended for tests.
func (e *Engine) SetThreshold(threshold uint64) {
	if threshold == 0 {
		e.threshold = BlockThreshold
		return
	}
	e.threshold = threshold
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(reputationEvent{evt: evt})
}

// ReportCancellation increments the seller's report count. Reaching the
// threshold is a one-way trigger: the first crossing sets the blocked flag
// and emits a block event; reports against an already-blocked seller still
// count but never re-trigger the block. Returns the updated record and
// whether this report tripped the block.
func (e *Engine) ReportCancellation(seller [20]byte) (*registry.Seller, bool, error) {
	if e == nil || e.sellers == nil {
		return nil, false, errors.New("reputation: seller state not configured")
	}
	record, exists, err := e.sellers.Get(seller)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, registry.ErrNotRegistered
	}
	record.ReportCount++
	blockedNow := false
	if !record.Blocked && record.ReportCount >= e.threshold {
		record.Blocked = true
		record.BlockReason = DefaultBlockReason
		blockedNow = true
	}
	if err := e.sellers.Put(record); err != nil {
		return nil, false, err
	}
	if blockedNow {
		e.emit(newAutoBlockedEvent(record))
	} else {
		e.emit(newReportedEvent(record))
	}
	return record.Clone(), blockedNow, nil
}

// Rate consumes one rating credit against the seller's confirmed-purchase
// quota. Credits are granted per confirmed purchase, first-come-first-served
// across all of the seller's buyers.
func (e *Engine) Rate(caller, seller [20]byte) (*registry.Seller, error) {
	if e == nil || e.sellers == nil {
		return nil, errors.New("reputation: seller state not configured")
	}
	record, exists, err := e.sellers.Get(seller)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, registry.ErrNotRegistered
	}
	if record.ConfirmedPurchases == 0 {
		return nil, ErrNoConfirmedPurchases
	}
	if record.RatingCount >= record.ConfirmedPurchases {
		return nil, ErrRatingExceeded
	}
	record.RatingCount++
	if err := e.sellers.Put(record); err != nil {
		return nil, err
	}
	e.emit(newRatedEvent(caller, record))
	return record.Clone(), nil
}
