package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bondmint/crypto"
	"bondmint/native/issuance"
	"bondmint/observability/metrics"
)

// Server exposes the issuance engine over HTTP.
type Server struct {
	engine  *issuance.Engine
	logger  *slog.Logger
	metrics *metrics.IssuanceMetrics
}

// NewServer constructs the HTTP facade for the engine.
func NewServer(engine *issuance.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger, metrics: metrics.Issuance()}
}

type createCoinRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Currency    string `json:"currency"`
	CoinType    string `json:"coinType"`
	Decimals    uint8  `json:"decimals"`
	URI         string `json:"uri"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

type coinResponse struct {
	Mint        string `json:"mint"`
	Address     string `json:"address"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	CoinType    string `json:"coinType"`
	Currency    string `json:"currency"`
	Supply      uint64 `json:"supply"`
	Decimals    uint8  `json:"decimals"`
	URI         string `json:"uri,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

func coinPayload(record *issuance.CoinRecord) coinResponse {
	return coinResponse{
		Mint:        record.Mint.String(),
		Address:     record.Address.String(),
		Symbol:      record.Symbol,
		Name:        record.Name,
		CoinType:    string(record.CoinType),
		Currency:    record.Currency,
		Supply:      record.Supply,
		Decimals:    record.Decimals,
		URI:         record.URI,
		ImageURL:    record.ImageURL,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	}
}

func (s *Server) handleCreateCoin(w http.ResponseWriter, r *http.Request) {
	var req createCoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	record, err := s.engine.CreateCoin(r.Context(), issuance.CoinParams{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Currency:    req.Currency,
		CoinType:    issuance.CoinType(req.CoinType),
		Decimals:    req.Decimals,
		URI:         req.URI,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	})
	if err != nil {
		s.observe("create", err, 0)
		writeError(w, err)
		return
	}
	s.observe("create", nil, 0)
	writeJSON(w, http.StatusCreated, coinPayload(record))
}

func (s *Server) handleGetCoin(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	record, ok, err := s.engine.Registry().GetBySymbol(symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, issuance.ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, coinPayload(record))
}

type operationRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	// MinOut optionally bounds the conversion: mints below this many tokens
	// (or redemptions below this much collateral) are rejected. Zero disables
	// the bound.
	MinOut uint64 `json:"minOut"`
}

type mintResponse struct {
	TokensOut       uint64 `json:"tokensOut"`
	TreasuryBalance uint64 `json:"treasuryBalance"`
	CoinSupply      uint64 `json:"coinSupply"`
}

type redeemResponse struct {
	CollateralOut   uint64 `json:"collateralOut"`
	TreasuryBalance uint64 `json:"treasuryBalance"`
	CoinSupply      uint64 `json:"coinSupply"`
}

func (s *Server) resolveOperation(w http.ResponseWriter, r *http.Request) (*issuance.CoinRecord, crypto.Address, operationRequest, bool) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return nil, crypto.Address{}, req, false
	}
	account, err := crypto.DecodeAddress(req.Account)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid account: %v", err)})
		return nil, crypto.Address{}, req, false
	}
	symbol := chi.URLParam(r, "symbol")
	record, ok, err := s.engine.Registry().GetBySymbol(symbol)
	if err != nil {
		writeError(w, err)
		return nil, crypto.Address{}, req, false
	}
	if !ok {
		writeError(w, issuance.ErrRecordNotFound)
		return nil, crypto.Address{}, req, false
	}
	return record, account, req, true
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	record, account, req, ok := s.resolveOperation(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.engine.Mint(r.Context(), record.Mint, req.Amount, req.MinOut, account)
	if err != nil {
		s.observe("mint", err, time.Since(start))
		writeError(w, err)
		return
	}
	s.observe("mint", nil, time.Since(start))
	s.metrics.SetTreasuryBalance(result.TreasuryBalance)
	s.metrics.SetCoinSupply(record.Symbol, result.CoinSupply)
	writeJSON(w, http.StatusOK, mintResponse{
		TokensOut:       result.TokensOut,
		TreasuryBalance: result.TreasuryBalance,
		CoinSupply:      result.CoinSupply,
	})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	record, account, req, ok := s.resolveOperation(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.engine.Redeem(r.Context(), record.Mint, req.Amount, req.MinOut, account)
	if err != nil {
		s.observe("redeem", err, time.Since(start))
		writeError(w, err)
		return
	}
	s.observe("redeem", nil, time.Since(start))
	s.metrics.SetTreasuryBalance(result.TreasuryBalance)
	s.metrics.SetCoinSupply(record.Symbol, result.CoinSupply)
	writeJSON(w, http.StatusOK, redeemResponse{
		CollateralOut:   result.CollateralOut,
		TreasuryBalance: result.TreasuryBalance,
		CoinSupply:      result.CoinSupply,
	})
}

type treasuryResponse struct {
	Address           string `json:"address"`
	CollateralMint    string `json:"collateralMint"`
	CollateralAccount string `json:"collateralAccount"`
	Balance           uint64 `json:"balance"`
	Version           uint64 `json:"version"`
}

func (s *Server) handleGetTreasury(w http.ResponseWriter, r *http.Request) {
	record, ok, err := s.engine.Treasury().Load()
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, issuance.ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, treasuryResponse{
		Address:           record.Address.String(),
		CollateralMint:    record.CollateralMint.String(),
		CollateralAccount: record.CollateralAccount.String(),
		Balance:           record.Balance,
		Version:           record.Version,
	})
}

func (s *Server) observe(operation string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.ObserveOperation(operation, result, elapsed)
}
