package rpc

import (
	"errors"
	"net/http"

	"marketledger/native/catalog"
	"marketledger/native/escrow"
	"marketledger/native/fees"
	"marketledger/native/registry"
	"marketledger/native/reputation"
	"marketledger/native/token"
)

var (
	errMissingField = errors.New("rpc: missing required field")
	errUnauthorized = errors.New("rpc: unauthorized")
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeUnauthorized   = -32001
	codeInvalidParams  = -32021
	codeNotFound       = -32022
	codeForbidden      = -32023
	codeConflict       = -32024
	codeServerError    = -32025
)

var notFoundErrors = []error{
	catalog.ErrNotFound,
	escrow.ErrPurchaseNotFound,
	registry.ErrNotRegistered,
}

var conflictErrors = []error{
	escrow.ErrOutOfStock,
	escrow.ErrSellerOwnProduct,
	escrow.ErrAlreadyPurchased,
	escrow.ErrAlreadyConfirmed,
	escrow.ErrAlreadySold,
	escrow.ErrAlreadyCanceled,
	escrow.ErrNotCanceled,
	escrow.ErrAlreadyReported,
	registry.ErrAlreadyRegistered,
	registry.ErrBlocked,
	registry.ErrNotBlocked,
	reputation.ErrRatingExceeded,
	reputation.ErrNoConfirmedPurchases,
	token.ErrInsufficientBalance,
	token.ErrInsufficientAllowance,
}

var forbiddenErrors = []error{
	registry.ErrUnauthorized,
	fees.ErrUnauthorized,
	token.ErrUnauthorizedMinter,
	escrow.ErrNoPaymentForProduct,
}

var invalidParamErrors = []error{
	catalog.ErrInvalidPrice,
	fees.ErrInvalidWithdrawAddress,
	token.ErrInvalidAmount,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorStatus maps a domain error onto its JSON-RPC code and HTTP status.
// Unknown errors are reported as opaque internal failures.
func errorStatus(err error) (int, int, string) {
	switch {
	case matchesAny(err, invalidParamErrors):
		return http.StatusBadRequest, codeInvalidParams, err.Error()
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, codeNotFound, err.Error()
	case matchesAny(err, forbiddenErrors):
		return http.StatusForbidden, codeForbidden, err.Error()
	case matchesAny(err, conflictErrors):
		return http.StatusConflict, codeConflict, err.Error()
	default:
		return http.StatusInternalServerError, codeServerError, "internal error"
	}
}
