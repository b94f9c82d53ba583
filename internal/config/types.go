package config

import "time"

// Transport selects how requests reach the node
type Transport string

const (
	TransportHTTP Transport = "http"
	TransportWS   Transport = "ws"
)

// Config represents the main configuration structure
type Config struct {
	LogLevel         string          `json:"logLevel"`
	RequestTimeout   int             `json:"requestTimeout"`   // ms
	WSMessageTimeout int             `json:"wsMessageTimeout"` // ms - read deadline for the WebSocket connection
	PingInterval     int             `json:"pingInterval"`     // ms
	ScriptTimeout    int             `json:"scriptTimeout"`    // ms
	SessionPath      string          `json:"sessionPath"`
	Cache            *CacheConfig    `json:"cache,omitempty"`
	Networks         []NetworkConfig `json:"networks"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Enabled         bool     `json:"enabled"`
	TTL             int      `json:"ttl"`             // seconds
	Size            int      `json:"size"`            // number of entries
	DisabledMethods []string `json:"disabledMethods"` // methods to exclude from caching
}

// NetworkConfig describes one target network.
// Catalog and supported list come from Preset unless the paths override them;
// Discover replaces the supported list with the node's rpc_methods answer.
type NetworkConfig struct {
	Name          string    `json:"name"`
	Preset        string    `json:"preset"`
	CatalogPath   string    `json:"catalogPath"`
	SupportedPath string    `json:"supportedPath"`
	Discover      bool      `json:"discover"`
	Transport     Transport `json:"transport"`
	RPCURL        string    `json:"rpcUrl"`
	WSURL         string    `json:"wsUrl"`
}

// Default values
const (
	DefaultLogLevel         = "info"
	DefaultRequestTimeout   = 10000 // ms
	DefaultWSMessageTimeout = 60000 // ms
	DefaultPingInterval     = 30000 // ms
	DefaultScriptTimeout    = 30000 // ms
	DefaultSessionPath      = "./session"
	DefaultCacheTTL         = 300 // seconds
	DefaultCacheSize        = 1024
)

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetWSMessageTimeoutDuration returns the WebSocket read deadline as time.Duration
func (c *Config) GetWSMessageTimeoutDuration() time.Duration {
	return time.Duration(c.WSMessageTimeout) * time.Millisecond
}

// GetPingIntervalDuration returns ping interval as time.Duration
func (c *Config) GetPingIntervalDuration() time.Duration {
	return time.Duration(c.PingInterval) * time.Millisecond
}

// GetScriptTimeoutDuration returns script timeout as time.Duration
func (c *Config) GetScriptTimeoutDuration() time.Duration {
	return time.Duration(c.ScriptTimeout) * time.Millisecond
}

// IsCacheEnabled returns true if cache is configured and enabled
func (c *Config) IsCacheEnabled() bool {
	return c.Cache != nil && c.Cache.Enabled
}

// Network returns the named network config
func (c *Config) Network(name string) (*NetworkConfig, bool) {
	for i := range c.Networks {
		if c.Networks[i].Name == name {
			return &c.Networks[i], true
		}
	}
	return nil, false
}

// GetTTLDuration returns cache TTL as time.Duration
func (c *CacheConfig) GetTTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Endpoint returns the URL matching the selected transport
func (n *NetworkConfig) Endpoint() string {
	if n.Transport == TransportWS {
		return n.WSURL
	}
	return n.RPCURL
}
