package rpc

import "encoding/json"

// Request models a JSON-RPC 2.0 request. Params carries at most one
// positional object per method.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// Error is the JSON-RPC error object returned on failure.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Response is the JSON-RPC response envelope.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type sellerResult struct {
	Address            string `json:"address"`
	Name               string `json:"name"`
	URI                string `json:"uri"`
	Location           string `json:"location"`
	Contact            string `json:"contact"`
	Blocked            bool   `json:"blocked"`
	BlockReason        string `json:"blockReason,omitempty"`
	ReportCount        uint64 `json:"reportCount"`
	RatingCount        uint64 `json:"ratingCount"`
	ConfirmedPurchases uint64 `json:"confirmedPurchases"`
}

type productResult struct {
	ID          uint64 `json:"id"`
	Seller      string `json:"seller"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Inventory   uint64 `json:"inventory"`
	InStock     bool   `json:"inStock"`
}

type purchaseResult struct {
	ProductID uint64 `json:"productId"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Price     string `json:"price"`
	Status    string `json:"status"`
	Reported  bool   `json:"reported"`
}

type addressResult struct {
	Address string `json:"address"`
}

type amountResult struct {
	Amount string `json:"amount"`
	Symbol string `json:"symbol"`
}

type blockedResult struct {
	Blocked bool `json:"blocked"`
}

type reportResult struct {
	SellerBlocked bool `json:"sellerBlocked"`
}
