package rpc

import (
	"net/http"

	"marketledger/native/token"
)

type mintParams struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenMint(w http.ResponseWriter, r *http.Request, req *Request) error {
	if !s.requireAuth(w, r, req) {
		return errUnauthorized
	}
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	to, err := parseAddress("to", params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if err := s.node.MintTokens(s.node.Owner(), to, amount); err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	balance, err := s.node.TokenBalance(to)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: balance.String(), Symbol: token.Symbol})
	return nil
}

type approveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, req *Request) error {
	var params approveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if err := s.node.ApproveTokens(owner, spender, amount); err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String(), Symbol: token.Symbol})
	return nil
}

type transferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, req *Request) error {
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	from, err := parseAddress("from", params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	to, err := parseAddress("to", params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	if err := s.node.TransferTokens(from, to, amount); err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String(), Symbol: token.Symbol})
	return nil
}

type balanceParams struct {
	Address string `json:"address"`
}

func (s *Server) handleTokenBalanceOf(w http.ResponseWriter, req *Request) error {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	balance, err := s.node.TokenBalance(addr)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: balance.String(), Symbol: token.Symbol})
	return nil
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleTokenAllowance(w http.ResponseWriter, req *Request) error {
	var params allowanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	owner, err := parseAddress("owner", params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return err
	}
	allowance, err := s.node.TokenAllowance(owner, spender)
	if err != nil {
		s.writeDomainError(w, req, err)
		return err
	}
	writeResult(w, req.ID, amountResult{Amount: allowance.String(), Symbol: token.Symbol})
	return nil
}
