package config

import (
	"fmt"
	"strings"
)

var supportedBackends = map[string]struct{}{
	"leveldb": {},
	"bolt":    {},
	"memory":  {},
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if _, ok := supportedBackends[backend]; !ok {
		return fmt.Errorf("config: unsupported backend %q (expected leveldb, bolt or memory)", c.Backend)
	}
	c.Backend = backend
	if c.Oracle.MaxQuoteAgeSeconds <= 0 {
		return fmt.Errorf("config: oracle max quote age must be positive")
	}
	for _, currency := range c.Oracle.Currencies {
		if strings.TrimSpace(currency) == "" {
			return fmt.Errorf("config: empty oracle currency entry")
		}
	}
	return nil
}
