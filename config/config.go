package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// OracleConfig configures the exchange-rate feeds consulted before every
// settle.
type OracleConfig struct {
	Endpoint           string   `toml:"Endpoint"`
	APIKey             string   `toml:"APIKey"`
	MaxQuoteAgeSeconds int      `toml:"MaxQuoteAgeSeconds"`
	Priority           []string `toml:"Priority"`
	Currencies         []string `toml:"Currencies"`
}

type Config struct {
	ListenAddress   string       `toml:"ListenAddress"`
	DataDir         string       `toml:"DataDir"`
	CollateralMint  string       `toml:"CollateralMint"`
	Backend         string       `toml:"Backend"`
	Env             string       `toml:"Env"`
	LogFile         string       `toml:"LogFile"`
	LogMaxSizeMB    int          `toml:"LogMaxSizeMB"`
	RateLimitPerSec float64      `toml:"RateLimitPerSec"`
	RateLimitBurst  int          `toml:"RateLimitBurst"`
	Oracle          OracleConfig `toml:"Oracle"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8546"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./bondmint-data"
	}
	if strings.TrimSpace(c.Backend) == "" {
		c.Backend = "leveldb"
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "local"
	}
	if c.RateLimitPerSec <= 0 {
		c.RateLimitPerSec = 25
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 50
	}
	if c.Oracle.MaxQuoteAgeSeconds <= 0 {
		c.Oracle.MaxQuoteAgeSeconds = 90
	}
	if len(c.Oracle.Currencies) == 0 {
		c.Oracle.Currencies = []string{"USD", "EUR", "GBP", "JPY"}
	}
	if c.Oracle.Priority == nil {
		c.Oracle.Priority = []string{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create %s: %w", path, err)
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: write default %s: %w", path, err)
	}
	return cfg, nil
}
