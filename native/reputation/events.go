package reputation

import (
	"encoding/hex"
	"strconv"

	"marketledger/core/types"
	"marketledger/native/registry"
)

const (
	EventTypeCancellationReported = "seller.reported"
	EventTypeSellerAutoBlocked    = "seller.autoblocked"
	EventTypeSellerRated          = "seller.rated"
)

func newReportedEvent(s *registry.Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeCancellationReported, Attributes: attrs}
	}
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	attrs["reportCount"] = strconv.FormatUint(s.ReportCount, 10)
	return &types.Event{Type: EventTypeCancellationReported, Attributes: attrs}
}

func newAutoBlockedEvent(s *registry.Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeSellerAutoBlocked, Attributes: attrs}
	}
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	attrs["reason"] = s.BlockReason
	attrs["reportCount"] = strconv.FormatUint(s.ReportCount, 10)
	return &types.Event{Type: EventTypeSellerAutoBlocked, Attributes: attrs}
}

func newRatedEvent(rater [20]byte, s *registry.Seller) *types.Event {
	attrs := make(map[string]string)
	if s == nil {
		return &types.Event{Type: EventTypeSellerRated, Attributes: attrs}
	}
	attrs["rater"] = hex.EncodeToString(rater[:])
	attrs["seller"] = hex.EncodeToString(s.Addr[:])
	attrs["ratingCount"] = strconv.FormatUint(s.RatingCount, 10)
	return &types.Event{Type: EventTypeSellerRated, Attributes: attrs}
}
