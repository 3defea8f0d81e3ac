package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bondmint/gateway/middleware"
	"bondmint/native/issuance"
)

// Config wires the router's dependencies.
type Config struct {
	Engine    *issuance.Engine
	Logger    *slog.Logger
	RateLimit middleware.RateLimit
}

// New builds the HTTP handler exposing the issuance API.
func New(cfg Config) http.Handler {
	server := NewServer(cfg.Engine, cfg.Logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware())
		v1.Post("/coins", server.handleCreateCoin)
		v1.Get("/coins/{symbol}", server.handleGetCoin)
		v1.Post("/coins/{symbol}/mint", server.handleMint)
		v1.Post("/coins/{symbol}/redeem", server.handleRedeem)
		v1.Get("/treasury", server.handleGetTreasury)
	})

	return r
}
