package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketledger/core"
	"marketledger/crypto"
	"marketledger/observability"
)

const maxRequestBytes = 1 << 20

// Server exposes the ledger over JSON-RPC 2.0. Administrative methods
// (blocking sellers, minting, fee withdrawal) additionally require the bearer
// token from MARKETD_RPC_TOKEN; when the variable is unset those methods are
// disabled entirely.
type Server struct {
	node      *core.Node
	log       *slog.Logger
	authToken string
}

// NewServer constructs the RPC server over the given node.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:      node,
		log:       logger,
		authToken: strings.TrimSpace(os.Getenv("MARKETD_RPC_TOKEN")),
	}
}

// Handler returns the HTTP handler serving JSON-RPC at the root alongside the
// health and metrics endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	return mux
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("rpc server listening", "addr", addr, "admin", s.authToken != "")
	return srv.ListenAndServe()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body")
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large")
		return
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request")
		return
	}
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "jsonrpc must be \"2.0\" with a method")
		return
	}
	start := time.Now()
	var handlerErr error
	defer func() {
		observability.ModuleMetrics().Observe(req.Method, start, handlerErr)
	}()
	handlerErr = s.dispatch(w, r, &req)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *Request) error {
	switch req.Method {
	case "market_registerSeller":
		return s.handleRegisterSeller(w, req)
	case "market_blockSeller":
		return s.handleBlockSeller(w, r, req)
	case "market_unblockSeller":
		return s.handleUnblockSeller(w, r, req)
	case "market_isSellerBlocked":
		return s.handleIsSellerBlocked(w, req)
	case "market_getBlockedSeller":
		return s.handleBlockedSellerDetails(w, req)
	case "market_createProduct":
		return s.handleCreateProduct(w, req)
	case "market_getProduct":
		return s.handleGetProduct(w, req)
	case "market_purchase":
		return s.handlePurchase(w, req)
	case "market_confirmPayment":
		return s.handleConfirmPayment(w, req)
	case "market_cancelPurchase":
		return s.handleCancelPurchase(w, req)
	case "market_reportCanceledPurchase":
		return s.handleReportCanceled(w, req)
	case "market_getPurchase":
		return s.handleGetPurchase(w, req)
	case "market_getSellerDetails":
		return s.handleGetSellerDetails(w, req)
	case "market_rateSeller":
		return s.handleRateSeller(w, req)
	case "market_vaultAddress":
		return s.handleVaultAddress(w, req)
	case "market_feeBalance":
		return s.handleFeeBalance(w, req)
	case "market_withdrawFees":
		return s.handleWithdrawFees(w, r, req)
	case "token_mint":
		return s.handleTokenMint(w, r, req)
	case "token_approve":
		return s.handleTokenApprove(w, req)
	case "token_transfer":
		return s.handleTokenTransfer(w, req)
	case "token_balanceOf":
		return s.handleTokenBalanceOf(w, req)
	case "token_allowance":
		return s.handleTokenAllowance(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
		return fmt.Errorf("method not found: %s", req.Method)
	}
}

// requireAuth guards administrative methods. Comparison is constant time so
// the token cannot be probed byte by byte.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request, req *Request) bool {
	if s.authToken == "" {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "administrative methods disabled: MARKETD_RPC_TOKEN not configured")
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "missing bearer token")
		return false
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) != 1 {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "invalid bearer token")
		return false
	}
	return true
}

func decodeParams(req *Request, out interface{}) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("params object required")
	}
	if len(req.Params) > 1 {
		return fmt.Errorf("expected a single params object")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func parseAddress(field, value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("%s is required", field)
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid %s: %v", field, err)
	}
	if addr.Prefix() != crypto.MktPrefix {
		return out, fmt.Errorf("invalid %s: expected %q prefix", field, crypto.MktPrefix)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: not a base-10 integer", field)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", field)
	}
	return amount, nil
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}})
}

// writeDomainError translates a ledger error into the JSON-RPC error space.
// Internal failures are logged with their cause but never leaked to clients.
func (s *Server) writeDomainError(w http.ResponseWriter, req *Request, err error) {
	status, code, message := errorStatus(err)
	if code == codeServerError {
		s.log.Error("rpc internal error", "method", req.Method, "err", err)
	}
	writeError(w, status, req.ID, code, message)
}
