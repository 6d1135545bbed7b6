package fees

import (
	"encoding/hex"
	"math/big"

	"marketledger/core/types"
)

const (
	EventTypeFeesWithdrawn = "fees.withdrawn"
)

func newWithdrawnEvent(destination [20]byte, amount *big.Int) *types.Event {
	attrs := map[string]string{
		"destination": hex.EncodeToString(destination[:]),
		"amount":      "0",
	}
	if amount != nil {
		attrs["amount"] = amount.String()
	}
	return &types.Event{Type: EventTypeFeesWithdrawn, Attributes: attrs}
}
