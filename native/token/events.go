package token

import (
	"encoding/hex"
	"math/big"

	"marketledger/core/types"
)

const (
	EventTypeTransferred = "token.transferred"
	EventTypeApproved    = "token.approved"
	EventTypeMinted      = "token.minted"
)

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func newTransferredEvent(from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeTransferred, Attributes: map[string]string{
		"from":   hex.EncodeToString(from[:]),
		"to":     hex.EncodeToString(to[:]),
		"amount": amountString(amount),
		"symbol": Symbol,
	}}
}

func newApprovedEvent(owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeApproved, Attributes: map[string]string{
		"owner":   hex.EncodeToString(owner[:]),
		"spender": hex.EncodeToString(spender[:]),
		"amount":  amountString(amount),
		"symbol":  Symbol,
	}}
}

func newMintedEvent(to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{Type: EventTypeMinted, Attributes: map[string]string{
		"to":     hex.EncodeToString(to[:]),
		"amount": amountString(amount),
		"symbol": Symbol,
	}}
}
