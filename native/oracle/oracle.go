package oracle

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"bondmint/observability/metrics"
)

var (
	// ErrUnsupportedCurrency indicates the currency code is outside the
	// configured quote set.
	ErrUnsupportedCurrency = errors.New("oracle: unsupported currency")
	// ErrOracleUnavailable indicates no registered feed produced a reading.
	ErrOracleUnavailable = errors.New("oracle: no feed available")
	// ErrStaleReading indicates every available reading exceeded the maximum
	// quote age. Stale prices must never reach settlement.
	ErrStaleReading = errors.New("oracle: reading is stale")
)

// DefaultMaxQuoteAge bounds how old a feed reading may be before it is
// rejected.
const DefaultMaxQuoteAge = 90 * time.Second

// DefaultCurrencies is the quote set served when none is configured.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "JPY"}

// Reading is a validated exchange-rate observation: how much collateral one
// issued token is worth, as a positive rational.
type Reading struct {
	Currency string
	Rate     *big.Rat
	AsOf     time.Time
	Source   string
}

// Clone returns a deep copy so callers can hold readings without aliasing
// the feed's internal state.
func (r Reading) Clone() Reading {
	clone := r
	if r.Rate != nil {
		clone.Rate = new(big.Rat).Set(r.Rate)
	}
	return clone
}

// PriceOracle is a single upstream price feed.
type PriceOracle interface {
	Name() string
	GetRate(ctx context.Context, currency string) (Reading, error)
}

// Gateway fans a rate request out to every registered feed and returns the
// minimum fresh reading. Taking the minimum is deliberately conservative:
// a feed quoting high cannot inflate the collateral released on redemption.
type Gateway struct {
	mu        sync.RWMutex
	sources   map[string]PriceOracle
	priority  []string
	supported map[string]struct{}
	maxAge    time.Duration
	clock     func() time.Time
}

// NewGateway constructs a gateway with the default currency set and quote age.
func NewGateway() *Gateway {
	g := &Gateway{
		sources: make(map[string]PriceOracle),
		maxAge:  DefaultMaxQuoteAge,
		clock:   time.Now,
	}
	g.SetSupportedCurrencies(DefaultCurrencies)
	return g
}

// Register adds or replaces a feed by name.
func (g *Gateway) Register(source PriceOracle) {
	if g == nil || source == nil {
		return
	}
	name := strings.ToLower(strings.TrimSpace(source.Name()))
	if name == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.sources[name]; !exists {
		g.priority = append(g.priority, name)
	}
	g.sources[name] = source
}

// SetPriority orders feed consultation. Unknown names are ignored at read
// time; feeds missing from the list are consulted after it.
func (g *Gateway) SetPriority(names []string) {
	if g == nil {
		return
	}
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.ToLower(strings.TrimSpace(name))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.priority = normalized
}

// SetSupportedCurrencies replaces the quote set.
func (g *Gateway) SetSupportedCurrencies(currencies []string) {
	if g == nil {
		return
	}
	supported := make(map[string]struct{}, len(currencies))
	for _, currency := range currencies {
		trimmed := strings.ToUpper(strings.TrimSpace(currency))
		if trimmed == "" {
			continue
		}
		supported[trimmed] = struct{}{}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.supported = supported
}

// SetMaxQuoteAge overrides the freshness bound.
func (g *Gateway) SetMaxQuoteAge(maxAge time.Duration) {
	if g == nil || maxAge <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maxAge = maxAge
}

// SetClock overrides the time source, primarily for deterministic testing.
func (g *Gateway) SetClock(clock func() time.Time) {
	if g == nil || clock == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock = clock
}

// GetRate consults every feed in priority order and returns the minimum
// fresh reading for the currency.
func (g *Gateway) GetRate(ctx context.Context, currency string) (Reading, error) {
	if g == nil {
		return Reading{}, ErrOracleUnavailable
	}
	canonical := strings.ToUpper(strings.TrimSpace(currency))
	g.mu.RLock()
	_, supported := g.supported[canonical]
	order := g.feedOrderLocked()
	maxAge := g.maxAge
	now := g.clock()
	g.mu.RUnlock()
	if !supported {
		metrics.Issuance().ObserveOracleReading(canonical, "unsupported")
		return Reading{}, ErrUnsupportedCurrency
	}
	var (
		best      Reading
		haveBest  bool
		haveStale bool
	)
	for _, source := range order {
		reading, err := source.GetRate(ctx, canonical)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Reading{}, ctxErr
			}
			continue
		}
		if reading.Rate == nil || reading.Rate.Sign() <= 0 {
			continue
		}
		if now.Sub(reading.AsOf) > maxAge {
			haveStale = true
			continue
		}
		if !haveBest || reading.Rate.Cmp(best.Rate) < 0 {
			best = reading.Clone()
			best.Currency = canonical
			haveBest = true
		}
	}
	if haveBest {
		metrics.Issuance().ObserveOracleReading(canonical, "ok")
		return best, nil
	}
	if haveStale {
		metrics.Issuance().ObserveOracleReading(canonical, "stale")
		return Reading{}, ErrStaleReading
	}
	metrics.Issuance().ObserveOracleReading(canonical, "unavailable")
	return Reading{}, ErrOracleUnavailable
}

func (g *Gateway) feedOrderLocked() []PriceOracle {
	order := make([]PriceOracle, 0, len(g.sources))
	seen := make(map[string]struct{}, len(g.sources))
	for _, name := range g.priority {
		if source, ok := g.sources[name]; ok {
			order = append(order, source)
			seen[name] = struct{}{}
		}
	}
	for name, source := range g.sources {
		if _, ok := seen[name]; ok {
			continue
		}
		order = append(order, source)
	}
	return order
}
