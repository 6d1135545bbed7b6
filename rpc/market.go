package rpc

import (
	"net/http"
	"strings"

	"marketledger/crypto"
	"marketledger/native/catalog"
	"marketledger/native/escrow"
	"marketledger/native/registry"
	"marketledger/native/token"
)

func encodeAddr(addr [20]byte) string {
	return crypto.NewAddress(crypto.MktPrefix, addr[:]).String()
}

func sellerToResult(s *registry.Seller) *sellerResult {
	if s == nil {
		return nil
	}
	return &sellerResult{
		Address:            encodeAddr(s.Addr),
		Name:               s.Name,
		URI:                s.URI,
		Location:           s.Location,
		Contact:            s.Contact,
		Blocked:            s.Blocked,
		BlockReason:        s.BlockReason,
		ReportCount:        s.ReportCount,
		RatingCount:        s.RatingCount,
		ConfirmedPurchases: s.ConfirmedPurchases,
	}
}

func productToResult(p *catalog.Product) *productResult {
	if p == nil {
		return nil
	}
	return &productResult{
		ID:          p.ID,
		Seller:      encodeAddr(p.Seller),
		Name:        p.Name,
		Image:       p.ImageURI,
		Price:       p.Price.String(),
		Description: p.Description,
		Inventory:   p.Inventory,
		InStock:     p.InStock(),
	}
}

func purchaseToResult(p *escrow.Purchase) *purchaseResult {
	if p == nil {
		return nil
	}
	return &purchaseResult{
		ProductID: p.ProductID,
		Buyer:     encodeAddr(p.Buyer),
		Seller:    encodeAddr(p.Seller),
		Price:     p.Price.String(),
		Status:    p.Status.String(),
		Reported:  p.Reported,
	}
}

type registerSellerParams struct {
	Caller   string `json:"caller"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Location string `json:"location"`
	Contact  string `json:"contact"`
}

func (s *Server) handleRegisterSeller(w http.ResponseWriter, req *Request) error {
	var params registerSellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "name is required")
		return errMissingField
	}
	seller, err := s.node.RegisterSeller(caller, params.Name, params.URI, params.Location, params.Contact)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, sellerToResult(seller))
	return nil
}

type blockSellerParams struct {
	Seller string `json:"seller"`
	Reason string `json:"reason"`
}

func (s *Server) handleBlockSeller(w http.ResponseWriter, r *http.Request, req *Request) error {
	if !s.requireAuth(w, r, req) {
		return errUnauthorized
	}
	var params blockSellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := parseAddress("seller", params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if err := s.node.BlockSeller(s.node.Owner(), seller, params.Reason); err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, blockedResult{Blocked: true})
	return nil
}

type sellerParams struct {
	Seller string `json:"seller"`
}

func (s *Server) handleUnblockSeller(w http.ResponseWriter, r *http.Request, req *Request) error {
	if !s.requireAuth(w, r, req) {
		return errUnauthorized
	}
	var params sellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := parseAddress("seller", params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if err := s.node.UnblockSeller(s.node.Owner(), seller); err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, blockedResult{Blocked: false})
	return nil
}

func (s *Server) handleIsSellerBlocked(w http.ResponseWriter, req *Request) error {
	var params sellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := parseAddress("seller", params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	blocked, err := s.node.IsSellerBlocked(seller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, blockedResult{Blocked: blocked})
	return nil
}

func (s *Server) handleBlockedSellerDetails(w http.ResponseWriter, req *Request) error {
	var params sellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := parseAddress("seller", params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	record, err := s.node.BlockedSellerDetails(seller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, sellerToResult(record))
	return nil
}

type createProductParams struct {
	Caller      string `json:"caller"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Inventory   uint64 `json:"inventory"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, req *Request) error {
	var params createProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "name is required")
		return errMissingField
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	product, err := s.node.CreateProduct(caller, params.Name, params.Image, price, params.Description, params.Inventory)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, productToResult(product))
	return nil
}

type productParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleGetProduct(w http.ResponseWriter, req *Request) error {
	var params productParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	product, err := s.node.GetProduct(params.ID)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, productToResult(product))
	return nil
}

type purchaseParams struct {
	ProductID uint64 `json:"productId"`
	Buyer     string `json:"buyer"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, req *Request) error {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	buyer, err := parseAddress("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	purchase, err := s.node.PurchaseProduct(params.ProductID, buyer)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, purchaseToResult(purchase))
	return nil
}

type purchaseCallerParams struct {
	ProductID uint64 `json:"productId"`
	Caller    string `json:"caller"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, req *Request) error {
	var params purchaseCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	purchase, err := s.node.ConfirmPayment(params.ProductID, caller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, purchaseToResult(purchase))
	return nil
}

func (s *Server) handleCancelPurchase(w http.ResponseWriter, req *Request) error {
	var params purchaseCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	purchase, err := s.node.CancelPurchase(params.ProductID, caller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, purchaseToResult(purchase))
	return nil
}

func (s *Server) handleReportCanceled(w http.ResponseWriter, req *Request) error {
	var params purchaseCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	blocked, err := s.node.ReportCanceledPurchase(params.ProductID, caller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, reportResult{SellerBlocked: blocked})
	return nil
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, req *Request) error {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	buyer, err := parseAddress("buyer", params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	purchase, ok, err := s.node.GetPurchase(params.ProductID, buyer)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	if !ok {
		writeResult(w, req.ID, nil)
		return nil
	}
	writeResult(w, req.ID, purchaseToResult(purchase))
	return nil
}

func (s *Server) handleGetSellerDetails(w http.ResponseWriter, req *Request) error {
	var params purchaseCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := s.node.GetSellerDetails(params.ProductID, caller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, sellerToResult(seller))
	return nil
}

type rateSellerParams struct {
	Caller string `json:"caller"`
	Seller string `json:"seller"`
}

func (s *Server) handleRateSeller(w http.ResponseWriter, req *Request) error {
	var params rateSellerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	seller, err := parseAddress("seller", params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	record, err := s.node.RateSeller(caller, seller)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, sellerToResult(record))
	return nil
}

// handleVaultAddress publishes the escrow vault address. Buyers approve the
// vault as spender before purchasing, so clients need it up front.
func (s *Server) handleVaultAddress(w http.ResponseWriter, req *Request) error {
	writeResult(w, req.ID, addressResult{Address: encodeAddr(s.node.Vault())})
	return nil
}

func (s *Server) handleFeeBalance(w http.ResponseWriter, req *Request) error {
	amount, err := s.node.FeeBalance()
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String(), Symbol: token.Symbol})
	return nil
}

type withdrawFeesParams struct {
	Destination string `json:"destination"`
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request, req *Request) error {
	if !s.requireAuth(w, r, req) {
		return errUnauthorized
	}
	var params withdrawFeesParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	destination, err := parseAddress("destination", params.Destination)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	amount, err := s.node.WithdrawFees(s.node.Owner(), destination)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String(), Symbol: token.Symbol})
	return nil
}
