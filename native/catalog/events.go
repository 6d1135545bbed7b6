package catalog

import (
	"encoding/hex"
	"strconv"

	"marketledger/core/types"
)

const (
	EventTypeProductListed = "catalog.listed"
)

func newListedEvent(p *Product) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeProductListed, Attributes: attrs}
	}
	attrs["productId"] = strconv.FormatUint(p.ID, 10)
	attrs["seller"] = hex.EncodeToString(p.Seller[:])
	attrs["name"] = p.Name
	attrs["price"] = p.Price.String()
	attrs["inventory"] = strconv.FormatUint(p.Inventory, 10)
	return &types.Event{Type: EventTypeProductListed, Attributes: attrs}
}
