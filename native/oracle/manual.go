package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// ManualOracle serves operator-pinned quotes. Used as a break-glass feed when
// upstream providers degrade, and heavily in tests.
type ManualOracle struct {
	mu     sync.RWMutex
	name   string
	quotes map[string]Reading
	clock  func() time.Time
}

// NewManualOracle constructs an empty manual feed.
func NewManualOracle(name string) *ManualOracle {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = "manual"
	}
	return &ManualOracle{
		name:   trimmed,
		quotes: make(map[string]Reading),
		clock:  time.Now,
	}
}

// SetClock overrides the time source used to stamp quotes.
func (m *ManualOracle) SetClock(clock func() time.Time) {
	if m == nil || clock == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// Name implements PriceOracle.
func (m *ManualOracle) Name() string {
	if m == nil {
		return "manual"
	}
	return m.name
}

// Set pins a quote for the currency, stamped with the current time.
func (m *ManualOracle) Set(currency string, rate *big.Rat) error {
	if m == nil {
		return fmt.Errorf("oracle: manual feed not initialised")
	}
	canonical := strings.ToUpper(strings.TrimSpace(currency))
	if canonical == "" {
		return fmt.Errorf("oracle: currency required")
	}
	if rate == nil || rate.Sign() <= 0 {
		return fmt.Errorf("oracle: rate must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[canonical] = Reading{
		Currency: canonical,
		Rate:     new(big.Rat).Set(rate),
		AsOf:     m.clock(),
		Source:   m.name,
	}
	return nil
}

// SetDecimal pins a quote supplied as a decimal string such as "1.0834".
func (m *ManualOracle) SetDecimal(currency, value string) error {
	rate, ok := new(big.Rat).SetString(strings.TrimSpace(value))
	if !ok {
		return fmt.Errorf("oracle: invalid rate %q", value)
	}
	return m.Set(currency, rate)
}

// GetRate implements PriceOracle.
func (m *ManualOracle) GetRate(_ context.Context, currency string) (Reading, error) {
	if m == nil {
		return Reading{}, ErrOracleUnavailable
	}
	canonical := strings.ToUpper(strings.TrimSpace(currency))
	m.mu.RLock()
	defer m.mu.RUnlock()
	reading, ok := m.quotes[canonical]
	if !ok {
		return Reading{}, ErrOracleUnavailable
	}
	return reading.Clone(), nil
}
