package token

import (
	"errors"
	"fmt"
	"math/big"

	"marketledger/core/events"
	"marketledger/core/types"
)

// Symbol and Decimals describe the single stable-value asset carried by the
// ledger. Amounts everywhere are integers in the smallest unit.
const (
	Symbol   = "MUSD"
	Decimals = 6
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance is returned when a delegated transfer
	// exceeds the spender's approved allowance.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrUnauthorizedMinter marks mint attempts from accounts other than
	// the configured minter.
	ErrUnauthorizedMinter = errors.New("token: unauthorized minter")
	// ErrInvalidAmount marks zero or negative amounts.
	ErrInvalidAmount = errors.New("token: amount must be positive")
)

// storage abstracts the subset of state manager functionality required by the
// token ledger.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	accountPrefix   = []byte("token/account/")
	allowancePrefix = []byte("token/allowance/")
)

func accountKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", accountPrefix, addr))
}

func allowanceKey(owner, spender [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x/%x", allowancePrefix, owner, spender))
}

// Ledger implements the fungible value-transfer service consumed by the
// escrow engine: balances, allowances and a minter-gated supply. Transfers are
// atomic and balances never go negative.
type Ledger struct {
	store   storage
	emitter events.Emitter
	minter  [20]byte
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetMinter configures the only principal allowed to mint new supply.
func (l *Ledger) SetMinter(addr [20]byte) { l.minter = addr }

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(tokenEvent{evt: evt})
}

func (l *Ledger) account(addr [20]byte) (*types.Account, error) {
	acc := new(types.Account)
	ok, err := l.store.KVGet(accountKey(addr), acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.EnsureAccount(nil), nil
	}
	return types.EnsureAccount(acc), nil
}

func (l *Ledger) putAccount(addr [20]byte, acc *types.Account) error {
	return l.store.KVPut(accountKey(addr), types.EnsureAccount(acc))
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// BalanceOf returns the balance held by the supplied address.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := l.account(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}

// Allowance returns the amount the spender may still move on the owner's
// behalf.
func (l *Ledger) Allowance(owner, spender [20]byte) (*big.Int, error) {
	allowance := new(big.Int)
	ok, err := l.store.KVGet(allowanceKey(owner, spender), allowance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return allowance, nil
}

// Mint credits newly issued supply to the recipient. Only the configured
// minter may mint.
func (l *Ledger) Mint(caller, to [20]byte, amount *big.Int) error {
	if caller != l.minter || l.minter == ([20]byte{}) {
		return ErrUnauthorizedMinter
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	acc, err := l.account(to)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := l.putAccount(to, acc); err != nil {
		return err
	}
	l.emit(newMintedEvent(to, amount))
	return nil
}

// Approve sets the spender's allowance over the owner's balance. A zero
// amount clears the allowance.
func (l *Ledger) Approve(owner, spender [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := l.store.KVPut(allowanceKey(owner, spender), amount); err != nil {
		return err
	}
	l.emit(newApprovedEvent(owner, spender, amount))
	return nil
}

// Transfer moves funds between two accounts. It fails without side effects
// when the sender's balance is insufficient.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount != nil && amount.Sign() == 0 {
		return nil
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	fromAcc, err := l.account(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	// A self-transfer writes the same account twice; leave the balance alone.
	if from == to {
		return nil
	}
	toAcc, err := l.account(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := l.putAccount(from, fromAcc); err != nil {
		return err
	}
	if err := l.putAccount(to, toAcc); err != nil {
		return err
	}
	l.emit(newTransferredEvent(from, to, amount))
	return nil
}

// TransferFrom moves funds from the owner to the recipient on behalf of the
// spender, consuming the spender's allowance.
func (l *Ledger) TransferFrom(owner, spender, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	allowance, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(owner, to, amount); err != nil {
		return err
	}
	return l.store.KVPut(allowanceKey(owner, spender), new(big.Int).Sub(allowance, amount))
}
