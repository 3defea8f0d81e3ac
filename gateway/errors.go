package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"bondmint/native/issuance"
	"bondmint/native/oracle"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps module errors onto HTTP statuses: caller input problems
// map to 4xx, degraded upstreams to 5xx, and anything unrecognised to 500 so
// internal failures are never mistaken for caller mistakes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, issuance.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, issuance.ErrCoinExists),
		errors.Is(err, issuance.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, issuance.ErrInsufficientSupply),
		errors.Is(err, issuance.ErrInsufficientCollateral),
		errors.Is(err, issuance.ErrInsufficientFunds),
		errors.Is(err, issuance.ErrSlippageExceeded),
		errors.Is(err, issuance.ErrInvalidCalculation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, issuance.ErrInvalidQuantity),
		errors.Is(err, issuance.ErrInvalidSymbol),
		errors.Is(err, issuance.ErrSymbolTooLong),
		errors.Is(err, issuance.ErrSymbolNotAlphanumeric),
		errors.Is(err, issuance.ErrInvalidName),
		errors.Is(err, issuance.ErrInvalidCurrency),
		errors.Is(err, issuance.ErrInvalidCoinType),
		errors.Is(err, issuance.ErrInvalidImage),
		errors.Is(err, issuance.ErrInvalidDescription),
		errors.Is(err, oracle.ErrUnsupportedCurrency):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrOracleUnavailable),
		errors.Is(err, oracle.ErrStaleReading):
		return http.StatusServiceUnavailable
	case errors.Is(err, issuance.ErrLedgerRejected):
		return http.StatusBadGateway
	case errors.Is(err, issuance.ErrSettlementTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
