package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bondmint/crypto"
	"bondmint/gateway/middleware"
	"bondmint/native/issuance"
	"bondmint/native/oracle"
	"bondmint/state"
	"bondmint/storage"
)

type noopLedger struct{}

func (noopLedger) Mint(crypto.Address, crypto.Address, uint64) error             { return nil }
func (noopLedger) Burn(crypto.Address, crypto.Address, uint64) error             { return nil }
func (noopLedger) TransferCollateral(crypto.Address, crypto.Address, uint64) error { return nil }

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	feed := oracle.NewManualOracle("manual")
	if err := feed.SetDecimal("USD", "1.0"); err != nil {
		t.Fatalf("set quote: %v", err)
	}
	rates := oracle.NewGateway()
	rates.Register(feed)
	engine := issuance.NewEngine(manager, rates, noopLedger{})
	if _, err := engine.InitializeTreasury(context.Background(), crypto.Address{0xB0}); err != nil {
		t.Fatalf("initialize treasury: %v", err)
	}
	return New(Config{
		Engine:    engine,
		RateLimit: middleware.RateLimit{PerSecond: 1000, Burst: 1000},
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createTestCoin(t *testing.T, handler http.Handler) coinResponse {
	t.Helper()
	rec := postJSON(t, handler, "/v1/coins", createCoinRequest{
		Name:        "US Dollar Coin",
		Symbol:      "USDC",
		Currency:    "USD",
		CoinType:    "fiat",
		URI:         "https://example.com/usdc.json",
		ImageURL:    "https://example.com/usdc.png",
		Description: "Bond collateralized dollar stablecoin",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create coin: status %d body %s", rec.Code, rec.Body.String())
	}
	var coin coinResponse
	if err := json.NewDecoder(rec.Body).Decode(&coin); err != nil {
		t.Fatalf("decode coin: %v", err)
	}
	return coin
}

func TestCreateAndFetchCoin(t *testing.T) {
	handler := newTestHandler(t)
	created := createTestCoin(t, handler)
	if created.Symbol != "USDC" || created.Supply != 0 {
		t.Fatalf("unexpected coin %+v", created)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/coins/USDC", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get coin: status %d body %s", rec.Code, rec.Body.String())
	}
	var fetched coinResponse
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode coin: %v", err)
	}
	if fetched.Mint != created.Mint {
		t.Fatalf("mint mismatch: %s vs %s", fetched.Mint, created.Mint)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing request id header")
	}
}

func TestCreateCoinValidation(t *testing.T) {
	handler := newTestHandler(t)
	rec := postJSON(t, handler, "/v1/coins", createCoinRequest{
		Name:        "Broken",
		Symbol:      "TOOLONG",
		Currency:    "USD",
		CoinType:    "fiat",
		ImageURL:    "https://example.com/x.png",
		Description: "d",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestCreateDuplicateCoin(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	rec := postJSON(t, handler, "/v1/coins", createCoinRequest{
		Name:        "US Dollar Coin",
		Symbol:      "usdc",
		Currency:    "USD",
		CoinType:    "fiat",
		ImageURL:    "https://example.com/usdc.png",
		Description: "duplicate",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMintAndRedeemFlow(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	account := crypto.Address{0xAA}.String()

	rec := postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: account, Amount: 1000})
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: status %d body %s", rec.Code, rec.Body.String())
	}
	var minted mintResponse
	if err := json.NewDecoder(rec.Body).Decode(&minted); err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	if minted.TokensOut != 1000 || minted.TreasuryBalance != 1000 {
		t.Fatalf("unexpected mint result %+v", minted)
	}

	rec = postJSON(t, handler, "/v1/coins/USDC/redeem", operationRequest{Account: account, Amount: 400})
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: status %d body %s", rec.Code, rec.Body.String())
	}
	var redeemed redeemResponse
	if err := json.NewDecoder(rec.Body).Decode(&redeemed); err != nil {
		t.Fatalf("decode redeem: %v", err)
	}
	if redeemed.CollateralOut != 400 || redeemed.TreasuryBalance != 600 {
		t.Fatalf("unexpected redeem result %+v", redeemed)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/treasury", nil)
	treasuryRec := httptest.NewRecorder()
	handler.ServeHTTP(treasuryRec, req)
	if treasuryRec.Code != http.StatusOK {
		t.Fatalf("treasury: status %d body %s", treasuryRec.Code, treasuryRec.Body.String())
	}
	var treasury treasuryResponse
	if err := json.NewDecoder(treasuryRec.Body).Decode(&treasury); err != nil {
		t.Fatalf("decode treasury: %v", err)
	}
	if treasury.Balance != 600 {
		t.Fatalf("unexpected treasury balance %d", treasury.Balance)
	}
}

func TestMintUnknownSymbol(t *testing.T) {
	handler := newTestHandler(t)
	account := crypto.Address{0xAA}.String()
	rec := postJSON(t, handler, "/v1/coins/EURC/mint", operationRequest{Account: account, Amount: 100})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMintUnsupportedCurrency(t *testing.T) {
	handler := newTestHandler(t)
	rec := postJSON(t, handler, "/v1/coins", createCoinRequest{
		Name:        "Franc Coin",
		Symbol:      "CHFC",
		Currency:    "CHF",
		CoinType:    "fiat",
		ImageURL:    "https://example.com/chfc.png",
		Description: "Swiss franc stablecoin",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create coin: status %d body %s", rec.Code, rec.Body.String())
	}
	account := crypto.Address{0xAA}.String()
	mintRec := postJSON(t, handler, "/v1/coins/CHFC/mint", operationRequest{Account: account, Amount: 100})
	if mintRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", mintRec.Code, mintRec.Body.String())
	}
}

func TestMintInvalidAccount(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	rec := postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: "not-an-address", Amount: 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMintSlippageBound(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	account := crypto.Address{0xAA}.String()
	rec := postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: account, Amount: 100, MinOut: 101})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body %s", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: account, Amount: 100, MinOut: 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("mint at exact bound: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRedeemBeyondSupply(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	account := crypto.Address{0xAA}.String()
	if rec := postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: account, Amount: 100}); rec.Code != http.StatusOK {
		t.Fatalf("mint: status %d body %s", rec.Code, rec.Body.String())
	}
	rec := postJSON(t, handler, "/v1/coins/USDC/redeem", operationRequest{Account: account, Amount: 101})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	createTestCoin(t, handler)
	account := crypto.Address{0xAA}.String()
	if rec := postJSON(t, handler, "/v1/coins/USDC/mint", operationRequest{Account: account, Amount: 100}); rec.Code != http.StatusOK {
		t.Fatalf("mint: status %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("bondmint_operations_total")) {
		t.Fatal("expected issuance metrics in scrape output")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("bondmint_oracle_readings_total")) {
		t.Fatal("expected oracle reading metrics in scrape output")
	}
}

func TestRateLimit(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	engine := issuance.NewEngine(manager, oracle.NewGateway(), noopLedger{})
	handler := New(Config{
		Engine:    engine,
		RateLimit: middleware.RateLimit{PerSecond: 0.001, Burst: 1},
	})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/treasury", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 on second request, got %d", rec.Code)
		}
	}
}
