// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"crypto-mcp/internal/binance"
	"crypto-mcp/internal/cryptoprice"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CRYPTO_MCP_PORT.
	EnvPrefix = "CRYPTO_MCP"

	defaultPort            = "8766"
	defaultRequestTimeout  = 10 * time.Second
	defaultCacheTTLSeconds = 5
	defaultMaxConcurrency  = 4
)

// Config represents the top-level application configuration.
type Config struct {
	Port            string   `mapstructure:"port"`
	Token           string   `mapstructure:"token"`
	TLSCertFile     string   `mapstructure:"tlsCertFile"`
	TLSKeyFile      string   `mapstructure:"tlsKeyFile"`
	BinanceBaseURL  string   `mapstructure:"binanceBaseURL"`
	QuoteCurrency   string   `mapstructure:"quoteCurrency"`
	TimeoutSeconds  int      `mapstructure:"requestTimeout"`
	CacheTTLSeconds int      `mapstructure:"cacheTTL"`
	MaxConcurrency  int      `mapstructure:"maxConcurrency"`
	DocsFile        string   `mapstructure:"docsFile"`
	PrefetchSymbols []string `mapstructure:"prefetchSymbols"`
	LogFile         string   `mapstructure:"logFile"`
	LogLevel        string   `mapstructure:"logLevel"`
	ConfigPath      string   `mapstructure:"-"`
}

// RequestTimeout returns the upstream HTTP timeout, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long prices are cached. Zero disables the cache.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// TLSEnabled reports whether both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Validate rejects combinations the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must not be empty")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("tlsCertFile and tlsKeyFile must be set together")
	}
	if strings.TrimSpace(c.QuoteCurrency) == "" {
		return errors.New("quoteCurrency must not be empty")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("maxConcurrency must not be negative, got %d", c.MaxConcurrency)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment bindings.
// The legacy PORT and MCP_TOKEN variables are honoured alongside the prefixed ones.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", defaultPort)
	v.SetDefault("token", "")
	v.SetDefault("tlsCertFile", "")
	v.SetDefault("tlsKeyFile", "")
	v.SetDefault("binanceBaseURL", binance.DefaultBaseURL)
	v.SetDefault("quoteCurrency", cryptoprice.DefaultQuoteCurrency)
	v.SetDefault("requestTimeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("cacheTTL", defaultCacheTTLSeconds)
	v.SetDefault("maxConcurrency", defaultMaxConcurrency)
	v.SetDefault("docsFile", "")
	v.SetDefault("prefetchSymbols", []string{})
	v.SetDefault("logFile", "")
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv("token", EnvPrefix+"_TOKEN", "MCP_TOKEN")
	return v
}

// Load reads the optional config file at path into v and returns the merged configuration
// (flags > env > file > defaults).
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path
	cfg.PrefetchSymbols = cleanList(cfg.PrefetchSymbols)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
