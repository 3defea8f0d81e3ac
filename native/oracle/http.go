package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPDoer captures the http.Client surface the feed needs, so tests can
// substitute a transport.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPFeed pulls quotes from a JSON rate endpoint of the form
// GET {endpoint}/v1/rates/{currency} returning {"rate": "...", "timestamp": n}.
type HTTPFeed struct {
	name     string
	endpoint string
	apiKey   string
	client   HTTPDoer
}

// NewHTTPFeed constructs a feed against the given endpoint. A nil client
// falls back to a default with a conservative timeout.
func NewHTTPFeed(name, endpoint, apiKey string, client HTTPDoer) *HTTPFeed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFeed{
		name:     strings.TrimSpace(name),
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   client,
	}
}

// Name implements PriceOracle.
func (f *HTTPFeed) Name() string {
	if f == nil || f.name == "" {
		return "http"
	}
	return f.name
}

type httpRateResponse struct {
	Rate      string `json:"rate"`
	Timestamp int64  `json:"timestamp"`
}

// GetRate implements PriceOracle.
func (f *HTTPFeed) GetRate(ctx context.Context, currency string) (Reading, error) {
	if f == nil || f.endpoint == "" {
		return Reading{}, ErrOracleUnavailable
	}
	canonical := strings.ToUpper(strings.TrimSpace(currency))
	requestURL := fmt.Sprintf("%s/v1/rates/%s", f.endpoint, url.PathEscape(canonical))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Reading{}, fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("X-Api-Key", f.apiKey)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Reading{}, fmt.Errorf("%w: status %d", ErrOracleUnavailable, resp.StatusCode)
	}
	var payload httpRateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("%w: decode: %v", ErrOracleUnavailable, err)
	}
	rate, ok := new(big.Rat).SetString(strings.TrimSpace(payload.Rate))
	if !ok || rate.Sign() <= 0 {
		return Reading{}, fmt.Errorf("%w: invalid rate %q", ErrOracleUnavailable, payload.Rate)
	}
	asOf := time.Unix(payload.Timestamp, 0).UTC()
	return Reading{
		Currency: canonical,
		Rate:     rate,
		AsOf:     asOf,
		Source:   f.Name(),
	}, nil
}
