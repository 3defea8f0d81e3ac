package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type IssuanceMetrics struct {
	operations     *prometheus.CounterVec
	settleDuration *prometheus.HistogramVec
	treasuryGauge  prometheus.Gauge
	coinSupply     *prometheus.GaugeVec
	oracleReadings *prometheus.CounterVec
}

var (
	issuanceOnce     sync.Once
	issuanceRegistry *IssuanceMetrics
)

func Issuance() *IssuanceMetrics {
	issuanceOnce.Do(func() {
		issuanceRegistry = &IssuanceMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "bondmint_operations_total",
				Help: "Count of issuance operations by type and outcome.",
			}, []string{"operation", "result"}),
			settleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "bondmint_settle_duration_seconds",
				Help:    "Wall time of the settle phase by operation.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation"}),
			treasuryGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "bondmint_treasury_balance",
				Help: "Current pooled collateral balance in base units.",
			}),
			coinSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "bondmint_coin_supply",
				Help: "Outstanding stablecoin supply per symbol.",
			}, []string{"symbol"}),
			oracleReadings: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "bondmint_oracle_readings_total",
				Help: "Count of oracle rate lookups by currency and outcome.",
			}, []string{"currency", "result"}),
		}
		prometheus.MustRegister(
			issuanceRegistry.operations,
			issuanceRegistry.settleDuration,
			issuanceRegistry.treasuryGauge,
			issuanceRegistry.coinSupply,
			issuanceRegistry.oracleReadings,
		)
	})
	return issuanceRegistry
}

func (m *IssuanceMetrics) ObserveOperation(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.settleDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *IssuanceMetrics) SetTreasuryBalance(balance uint64) {
	if m == nil {
		return
	}
	m.treasuryGauge.Set(float64(balance))
}

func (m *IssuanceMetrics) SetCoinSupply(symbol string, supply uint64) {
	if m == nil {
		return
	}
	if symbol == "" {
		symbol = "unknown"
	}
	m.coinSupply.WithLabelValues(symbol).Set(float64(supply))
}

func (m *IssuanceMetrics) ObserveOracleReading(currency, result string) {
	if m == nil {
		return
	}
	if currency == "" {
		currency = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	m.oracleReadings.WithLabelValues(currency, result).Inc()
}
