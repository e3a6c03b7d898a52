package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	envcfg "parserapi/pkg/config"
)

// Version is reported by /health and /.
const Version = "4.0.0"

// ServerConfig holds the HTTP server and storage settings.
type ServerConfig struct {
	// Port the API listens on. Default: 2058
	Port int

	// ParseTimeout bounds a whole /parse request. Default: 90s
	ParseTimeout time.Duration

	// ParseRateLimit is the number of /parse requests per minute per client IP. Zero disables it. Default: 30
	ParseRateLimit int

	// MaxBodyBytes limits request bodies. Default: 1MB
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown. Default: 5s
	ShutdownTimeout time.Duration

	// DatabaseURL enables the parse history store when set.
	DatabaseURL string

	// RedisURL selects the Redis cache when set; otherwise an in-memory cache is used.
	RedisURL string

	// TrustedProxies are the reverse proxies whose X-Forwarded-For and X-Real-IP headers
	// identify the client for rate limiting. Empty means the TCP peer address is always used.
	TrustedProxies []netip.Prefix

	// TraceSampleRatio is the share of root traces sampled, between 0 and 1. Default: 1
	TraceSampleRatio float64
}

// LoadServerConfig reads ServerConfig from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Port:            envcfg.GetEnvInt("PORT", 2058),
		ParseTimeout:    envcfg.GetEnvDuration("PARSE_TIMEOUT", 90*time.Second),
		ParseRateLimit:  envcfg.GetEnvInt("PARSE_RATE_LIMIT", 30),
		MaxBodyBytes:    int64(envcfg.GetEnvInt("MAX_BODY_BYTES", 1<<20)),
		ShutdownTimeout: envcfg.GetEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		DatabaseURL:     envcfg.GetEnvString("DATABASE_URL", ""),
		RedisURL:        envcfg.GetEnvString("REDIS_URL", ""),

		TraceSampleRatio: envcfg.GetEnvFloat("TRACE_SAMPLE_RATIO", 1),
	}

	proxies, err := ParseTrustedProxies(envcfg.GetEnvString("RATE_LIMIT_TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	return cfg, nil
}

// ParseTrustedProxies reads a comma-separated list of IPs and CIDR ranges.
// A single IP becomes a /32 or /128 prefix.
func ParseTrustedProxies(s string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(part); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		ip, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid IP or CIDR %q", part)
		}
		ip = ip.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return prefixes, nil
}

// Validate checks configuration correctness.
func (c *ServerConfig) Validate() error {
	if err := envcfg.ValidateIntRange(c.Port, 1, 65535); err != nil {
		return fmt.Errorf("PORT: %w", err)
	}
	if err := envcfg.ValidatePositiveDuration(c.ParseTimeout); err != nil {
		return fmt.Errorf("PARSE_TIMEOUT: %w", err)
	}
	if c.ParseRateLimit < 0 {
		return fmt.Errorf("PARSE_RATE_LIMIT must be non-negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if err := envcfg.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1, got %v", c.TraceSampleRatio)
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
