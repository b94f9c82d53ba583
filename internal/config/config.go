package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"rpcns/internal/catalog"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration JSON, applies defaults and validates it
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a config with one network per embedded preset and no URLs.
// Callers fill the URL of the network they use.
func Default() *Config {
	cfg := &Config{}
	for _, name := range catalog.PresetNames() {
		cfg.Networks = append(cfg.Networks, NetworkConfig{Name: name, Preset: name})
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.WSMessageTimeout == 0 {
		cfg.WSMessageTimeout = DefaultWSMessageTimeout
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.ScriptTimeout == 0 {
		cfg.ScriptTimeout = DefaultScriptTimeout
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = DefaultSessionPath
	}
	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.TTL == 0 {
			cfg.Cache.TTL = DefaultCacheTTL
		}
		if cfg.Cache.Size == 0 {
			cfg.Cache.Size = DefaultCacheSize
		}
	}

	for i := range cfg.Networks {
		n := &cfg.Networks[i]
		if n.Preset == "" && n.CatalogPath == "" {
			n.Preset = n.Name
		}
		if n.Transport == "" {
			if n.RPCURL == "" && n.WSURL != "" {
				n.Transport = TransportWS
			} else {
				n.Transport = TransportHTTP
			}
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if len(cfg.Networks) == 0 {
		return errors.New("at least one network is required")
	}

	names := make(map[string]bool)
	for i, n := range cfg.Networks {
		if n.Name == "" {
			return fmt.Errorf("network[%d]: name is required", i)
		}
		if names[n.Name] {
			return fmt.Errorf("network[%d]: duplicate network name '%s'", i, n.Name)
		}
		names[n.Name] = true

		if n.CatalogPath == "" {
			if _, err := catalog.Preset(n.Preset); err != nil {
				return fmt.Errorf("network '%s': %w", n.Name, err)
			}
		}

		switch n.Transport {
		case TransportHTTP:
			if n.RPCURL == "" {
				return fmt.Errorf("network '%s': rpcUrl is required for http transport", n.Name)
			}
		case TransportWS:
			if n.WSURL == "" {
				return fmt.Errorf("network '%s': wsUrl is required for ws transport", n.Name)
			}
		default:
			return fmt.Errorf("network '%s': transport must be 'http' or 'ws'", n.Name)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("requestTimeout must be non-negative")
	}

	if cfg.WSMessageTimeout < 0 {
		return fmt.Errorf("wsMessageTimeout must be non-negative")
	}

	if cfg.PingInterval < 0 {
		return fmt.Errorf("pingInterval must be non-negative")
	}

	if cfg.ScriptTimeout < 0 {
		return fmt.Errorf("scriptTimeout must be non-negative")
	}

	if cfg.Cache != nil && cfg.Cache.Enabled {
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when cache is enabled")
		}
		if cfg.Cache.Size <= 0 {
			return fmt.Errorf("cache.size must be positive when cache is enabled")
		}
	}

	return nil
}
