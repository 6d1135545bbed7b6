package escrow

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"marketledger/core/types"
	"marketledger/native/catalog"
)

const (
	EventTypePurchased = "market.purchased"
	EventTypeConfirmed = "market.confirmed"
	EventTypeCanceled  = "market.canceled"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newPurchasedEvent(p *Purchase, product *catalog.Product) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypePurchased, Attributes: attrs}
	}
	attrs["productId"] = strconv.FormatUint(p.ProductID, 10)
	attrs["buyer"] = hex.EncodeToString(p.Buyer[:])
	attrs["seller"] = hex.EncodeToString(p.Seller[:])
	attrs["price"] = amountString(p.Price)
	if product != nil {
		attrs["name"] = product.Name
		attrs["inStock"] = strconv.FormatBool(product.InStock())
	}
	return &types.Event{Type: EventTypePurchased, Attributes: attrs}
}

func newConfirmedEvent(p *Purchase, fee, payout *big.Int) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeConfirmed, Attributes: attrs}
	}
	attrs["productId"] = strconv.FormatUint(p.ProductID, 10)
	attrs["buyer"] = hex.EncodeToString(p.Buyer[:])
	attrs["seller"] = hex.EncodeToString(p.Seller[:])
	attrs["fee"] = amountString(fee)
	attrs["payout"] = amountString(payout)
	return &types.Event{Type: EventTypeConfirmed, Attributes: attrs}
}

func newCanceledEvent(p *Purchase, refund, sellerShare, cancelFee *big.Int) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeCanceled, Attributes: attrs}
	}
	attrs["productId"] = strconv.FormatUint(p.ProductID, 10)
	attrs["buyer"] = hex.EncodeToString(p.Buyer[:])
	attrs["seller"] = hex.EncodeToString(p.Seller[:])
	attrs["refund"] = amountString(refund)
	attrs["sellerShare"] = amountString(sellerShare)
	attrs["cancelFee"] = amountString(cancelFee)
	return &types.Event{Type: EventTypeCanceled, Attributes: attrs}
}
