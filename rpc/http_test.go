package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketledger/core"
	"marketledger/crypto"
	"marketledger/storage"
)

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func bech(a [20]byte) string {
	return crypto.NewAddress(crypto.MktPrefix, a[:]).String()
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *core.Node, [20]byte) {
	t.Helper()
	t.Setenv("MARKETD_RPC_TOKEN", "test-secret")
	owner := addr(1)
	node := core.NewNode(storage.NewMemDB(), owner)
	ts := httptest.NewServer(NewServer(node, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, node, owner
}

func call(t *testing.T, ts *httptest.Server, token, method string, params interface{}) rpcResponse {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func mustResult(t *testing.T, resp rpcResponse, out interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestRegisterSeller(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seller := bech(addr(2))

	resp := call(t, ts, "", "market_registerSeller", map[string]interface{}{
		"caller": seller, "name": "Acme", "uri": "https://acme.example",
	})
	var result sellerResult
	mustResult(t, resp, &result)
	if result.Address != seller || result.Name != "Acme" || result.Blocked {
		t.Fatalf("unexpected seller result: %+v", result)
	}

	dup := call(t, ts, "", "market_registerSeller", map[string]interface{}{
		"caller": seller, "name": "Acme",
	})
	if dup.Error == nil || dup.Error.Code != codeConflict {
		t.Fatalf("duplicate registration: expected conflict, got %+v", dup.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := call(t, ts, "", "market_doesNotExist", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestInvalidAddressRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := call(t, ts, "", "market_registerSeller", map[string]interface{}{
		"caller": "not-an-address", "name": "Acme",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestUnknownProductNotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := call(t, ts, "", "market_getProduct", map[string]interface{}{"id": 42})
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected not-found, got %+v", resp.Error)
	}
}

func TestAdminMethodsRequireBearerToken(t *testing.T) {
	ts, _, _ := newTestServer(t)
	params := map[string]interface{}{"to": bech(addr(2)), "amount": "1000000"}

	missing := call(t, ts, "", "token_mint", params)
	if missing.Error == nil || missing.Error.Code != codeUnauthorized {
		t.Fatalf("missing token: expected unauthorized, got %+v", missing.Error)
	}
	wrong := call(t, ts, "wrong-secret", "token_mint", params)
	if wrong.Error == nil || wrong.Error.Code != codeUnauthorized {
		t.Fatalf("wrong token: expected unauthorized, got %+v", wrong.Error)
	}

	resp := call(t, ts, "test-secret", "token_mint", params)
	var result amountResult
	mustResult(t, resp, &result)
	if result.Amount != "1000000" {
		t.Fatalf("expected minted balance 1000000, got %+v", result)
	}
}

func TestVaultAddressQuery(t *testing.T) {
	ts, node, _ := newTestServer(t)
	var result addressResult
	mustResult(t, call(t, ts, "", "market_vaultAddress", nil), &result)
	if result.Address != bech(node.Vault()) {
		t.Fatalf("expected vault %s, got %s", bech(node.Vault()), result.Address)
	}
}

func TestPurchaseFlowOverRPC(t *testing.T) {
	ts, _, _ := newTestServer(t)
	seller, buyer := bech(addr(2)), bech(addr(3))

	var vaultAddr addressResult
	mustResult(t, call(t, ts, "", "market_vaultAddress", nil), &vaultAddr)
	vault := vaultAddr.Address

	mustResult(t, call(t, ts, "", "market_registerSeller", map[string]interface{}{
		"caller": seller, "name": "Acme",
	}), &sellerResult{})

	var product productResult
	mustResult(t, call(t, ts, "", "market_createProduct", map[string]interface{}{
		"caller": seller, "name": "Widget", "price": "100000000", "inventory": 2,
	}), &product)
	if product.ID != 1 || !product.InStock {
		t.Fatalf("unexpected product: %+v", product)
	}

	mustResult(t, call(t, ts, "test-secret", "token_mint", map[string]interface{}{
		"to": buyer, "amount": "500000000",
	}), &amountResult{})
	mustResult(t, call(t, ts, "", "token_approve", map[string]interface{}{
		"owner": buyer, "spender": vault, "amount": "500000000",
	}), &amountResult{})

	var purchase purchaseResult
	mustResult(t, call(t, ts, "", "market_purchase", map[string]interface{}{
		"productId": product.ID, "buyer": buyer,
	}), &purchase)
	if purchase.Status != "paid" || purchase.Price != "100000000" {
		t.Fatalf("unexpected purchase: %+v", purchase)
	}

	var details sellerResult
	mustResult(t, call(t, ts, "", "market_getSellerDetails", map[string]interface{}{
		"productId": product.ID, "caller": buyer,
	}), &details)
	if details.Name != "Acme" {
		t.Fatalf("unexpected seller details: %+v", details)
	}

	var confirmed purchaseResult
	mustResult(t, call(t, ts, "", "market_confirmPayment", map[string]interface{}{
		"productId": product.ID, "caller": buyer,
	}), &confirmed)
	if confirmed.Status != "confirmed" {
		t.Fatalf("unexpected confirmation: %+v", confirmed)
	}

	var fee amountResult
	mustResult(t, call(t, ts, "", "market_feeBalance", nil), &fee)
	if fee.Amount != "5000000" {
		t.Fatalf("expected fee balance 5000000, got %+v", fee)
	}

	var balance amountResult
	mustResult(t, call(t, ts, "", "token_balanceOf", map[string]interface{}{
		"address": seller,
	}), &balance)
	if balance.Amount != "95000000" {
		t.Fatalf("expected seller payout 95000000, got %+v", balance)
	}
}

func TestGetPurchaseUnknownPairYieldsNull(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := call(t, ts, "", "market_getPurchase", map[string]interface{}{
		"productId": 1, "buyer": bech(addr(3)),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if string(resp.Result) != "" && string(resp.Result) != "null" {
		t.Fatalf("expected null result, got %s", resp.Result)
	}
}

func TestGetRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := ts.Client().Get(fmt.Sprintf("%s/healthz", ts.URL))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
