package registry

import (
	"encoding/hex"
	"strconv"

	"marketledger/core/types"
)

const (
	EventTypeSellerRegistered = "seller.registered"
	EventTypeSellerBlocked    = "seller.blocked"
	EventTypeSellerUnblocked  = "seller.unblocked"
)

func newRegisteredEvent(s *Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeSellerRegistered, Attributes: attrs}
	}
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	attrs["name"] = s.Name
	attrs["uri"] = s.URI
	return &types.Event{Type: EventTypeSellerRegistered, Attributes: attrs}
}

func newBlockedEvent(s *Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeSellerBlocked, Attributes: attrs}
	}
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	attrs["reason"] = s.BlockReason
	attrs["reportCount"] = strconv.FormatUint(s.ReportCount, 10)
	return &types.Event{Type: EventTypeSellerBlocked, Attributes: attrs}
}

func newUnblockedEvent(s *Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeSellerUnblocked, Attributes: attrs}
	}
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	return &types.Event{Type: EventTypeSellerUnblocked, Attributes: attrs}
}
