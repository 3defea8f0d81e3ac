package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bondmint/config"
	"bondmint/core/events"
	"bondmint/crypto"
	"bondmint/gateway"
	"bondmint/gateway/middleware"
	"bondmint/native/issuance"
	"bondmint/native/oracle"
	"bondmint/observability/logging"
	"bondmint/state"
	"bondmint/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.SetupWithOptions("bondmintd", cfg.Env, logging.Options{
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "backend", cfg.Backend, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	rates := buildOracle(cfg, logger)
	engine := issuance.NewEngine(manager, rates, &journalLedger{logger: logger})
	engine.SetEmitter(events.LogEmitter{Logger: logger})

	if err := ensureTreasury(cfg, engine, logger); err != nil {
		logger.Error("failed to initialize treasury", "err", err)
		os.Exit(1)
	}

	handler := gateway.New(gateway.Config{
		Engine: engine,
		Logger: logger,
		RateLimit: middleware.RateLimit{
			PerSecond: cfg.RateLimitPerSec,
			Burst:     cfg.RateLimitBurst,
		},
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.ListenAddress, "backend", cfg.Backend)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemDB(), nil
	case "leveldb":
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "issuance"))
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "issuance.db"))
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func buildOracle(cfg *config.Config, logger *slog.Logger) *oracle.Gateway {
	rates := oracle.NewGateway()
	rates.SetMaxQuoteAge(time.Duration(cfg.Oracle.MaxQuoteAgeSeconds) * time.Second)
	rates.SetSupportedCurrencies(cfg.Oracle.Currencies)
	if endpoint := strings.TrimSpace(cfg.Oracle.Endpoint); endpoint != "" {
		rates.Register(oracle.NewHTTPFeed("fx", endpoint, cfg.Oracle.APIKey, nil))
		logger.Info("registered rate feed",
			"endpoint", endpoint,
			logging.MaskField("api_key", cfg.Oracle.APIKey),
		)
	} else {
		logger.Warn("no oracle endpoint configured; rate requests will fail until a feed is registered")
	}
	if len(cfg.Oracle.Priority) > 0 {
		rates.SetPriority(cfg.Oracle.Priority)
	}
	return rates
}

func ensureTreasury(cfg *config.Config, engine *issuance.Engine, logger *slog.Logger) error {
	if _, ok, err := engine.Treasury().Load(); err != nil {
		return err
	} else if ok {
		return nil
	}
	mintStr := strings.TrimSpace(cfg.CollateralMint)
	if mintStr == "" {
		logger.Warn("treasury not initialized and no CollateralMint configured")
		return nil
	}
	mint, err := crypto.DecodeAddress(mintStr)
	if err != nil {
		return fmt.Errorf("invalid CollateralMint: %w", err)
	}
	record, err := engine.InitializeTreasury(context.Background(), mint)
	if err != nil {
		return err
	}
	logger.Info("treasury initialized",
		"address", record.Address.String(),
		"custody", record.CollateralAccount.String(),
	)
	return nil
}

// journalLedger stands in for the external token ledger adapter: every settle
// instruction is journalled so operators can replay them against the real
// ledger. Deployments integrating a live ledger swap this for a client that
// returns errors on rejection.
type journalLedger struct {
	logger *slog.Logger
}

func (l *journalLedger) Mint(mint, destination crypto.Address, amount uint64) error {
	l.logger.Info("ledger instruction",
		"op", "mint",
		"mint", mint.String(),
		"destination", destination.String(),
		"amount", amount,
	)
	return nil
}

func (l *journalLedger) Burn(mint, source crypto.Address, amount uint64) error {
	l.logger.Info("ledger instruction",
		"op", "burn",
		"mint", mint.String(),
		"source", source.String(),
		"amount", amount,
	)
	return nil
}

func (l *journalLedger) TransferCollateral(from, to crypto.Address, amount uint64) error {
	l.logger.Info("ledger instruction",
		"op", "transfer",
		"from", from.String(),
		"to", to.String(),
		"amount", amount,
	)
	return nil
}
