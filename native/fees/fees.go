package fees

import (
	"errors"
	"math/big"

	"marketledger/core/events"
	"marketledger/core/types"
)

var (
	// ErrUnauthorized marks withdrawal attempts from principals other than
	// the administrator.
	ErrUnauthorized = errors.New("fees: unauthorized")
	// ErrInvalidWithdrawAddress marks withdrawals to the zero address.
	ErrInvalidWithdrawAddress = errors.New("fees: invalid withdraw address")
)

// Split computes the basis-point share of the supplied amount using floor
// division, returning the share and the remaining net amount. A nil amount is
// treated as zero.
func Split(amount *big.Int, bps uint32) (*big.Int, *big.Int) {
	total := new(big.Int)
	if amount != nil {
		total.Set(amount)
	}
	if total.Sign() <= 0 {
		return big.NewInt(0), total
	}
	share := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(bps)))
	share.Div(share, big.NewInt(10_000))
	return share, new(big.Int).Sub(total, share)
}

// storage abstracts the subset of state manager functionality required by the
// treasury.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// tokenLedger is the slice of the value-transfer service the treasury needs
// to pay out accrued fees.
type tokenLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

var accruedKey = []byte("market/fees/accrued")

type treasuryEvent struct {
	evt *types.Event
}

func (e treasuryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e treasuryEvent) Event() *types.Event { return e.evt }

// Treasury accumulates the platform's fee cut. Fee funds physically sit in
// the module vault; the accumulator tracks the fee-owned share of the vault
// balance. Only the administrator may withdraw, and always in full.
type Treasury struct {
	store   storage
	tokens  tokenLedger
	emitter events.Emitter
	owner   [20]byte
	vault   [20]byte
}

// NewTreasury constructs a treasury bound to the provided storage and token
// ledger with a no-op emitter.
func NewTreasury(store storage, tokens tokenLedger) *Treasury {
	return &Treasury{store: store, tokens: tokens, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (t *Treasury) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		t.emitter = events.NoopEmitter{}
		return
	}
	t.emitter = emitter
}

// SetOwner configures the administrator principal.
func (t *Treasury) SetOwner(owner [20]byte) { t.owner = owner }

// SetVault configures the module vault address holding custodial funds.
func (t *Treasury) SetVault(vault [20]byte) { t.vault = vault }

func (t *Treasury) emit(evt *types.Event) {
	if t == nil || t.emitter == nil || evt == nil {
		return
	}
	t.emitter.Emit(treasuryEvent{evt: evt})
}

// Accrued returns the current fee-unit balance.
func (t *Treasury) Accrued() (*big.Int, error) {
	if t == nil || t.store == nil {
		return nil, errors.New("fees: storage unavailable")
	}
	accrued := new(big.Int)
	ok, err := t.store.KVGet(accruedKey, accrued)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return accrued, nil
}

// Accrue credits the accumulator. Zero and nil amounts are no-ops.
func (t *Treasury) Accrue(amount *big.Int) error {
	if t == nil || t.store == nil {
		return errors.New("fees: storage unavailable")
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return errors.New("fees: accrual must be non-negative")
	}
	accrued, err := t.Accrued()
	if err != nil {
		return err
	}
	return t.store.KVPut(accruedKey, new(big.Int).Add(accrued, amount))
}

// Withdraw transfers the entire accumulated fee balance from the vault to the
// destination and zeroes the accumulator. Administrator only; the destination
// must be a non-zero address.
func (t *Treasury) Withdraw(caller, destination [20]byte) (*big.Int, error) {
	if t == nil || t.store == nil {
		return nil, errors.New("fees: storage unavailable")
	}
	if t.owner == ([20]byte{}) || caller != t.owner {
		return nil, ErrUnauthorized
	}
	if destination == ([20]byte{}) {
		return nil, ErrInvalidWithdrawAddress
	}
	accrued, err := t.Accrued()
	if err != nil {
		return nil, err
	}
	// Nothing accrued: leave state and the event stream untouched.
	if accrued.Sign() == 0 {
		return accrued, nil
	}
	if t.tokens == nil {
		return nil, errors.New("fees: token ledger unavailable")
	}
	if err := t.tokens.Transfer(t.vault, destination, accrued); err != nil {
		return nil, err
	}
	if err := t.store.KVPut(accruedKey, big.NewInt(0)); err != nil {
		return nil, err
	}
	t.emit(newWithdrawnEvent(destination, accrued))
	return accrued, nil
}
