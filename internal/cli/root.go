// Package cli wires configuration, logging and the tool registry into cobra commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crypto-mcp/internal/appconfig"
	"crypto-mcp/internal/binance"
	"crypto-mcp/internal/cryptoprice"
	"crypto-mcp/internal/doclinks"
	"crypto-mcp/internal/logging"
	"crypto-mcp/internal/registry"
)

const (
	serviceName    = "MultiServer"
	serviceVersion = "1.0.0"
)

// flagKeys maps command-line flags to configuration keys. Flags override env and file values.
var flagKeys = map[string]string{
	"port":           "port",
	"token":          "token",
	"tls-cert":       "tlsCertFile",
	"tls-key":        "tlsKeyFile",
	"binance-url":    "binanceBaseURL",
	"quote-currency": "quoteCurrency",
	"timeout":        "requestTimeout",
	"cache-ttl":      "cacheTTL",
	"concurrency":    "maxConcurrency",
	"docs-file":      "docsFile",
	"prefetch":       "prefetchSymbols",
	"log-file":       "logFile",
	"log-level":      "logLevel",
}

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     appconfig.Config
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: appconfig.NewViper()}

	root := &cobra.Command{
		Use:          "crypto-mcp",
		Short:        "crypto-mcp serves cryptocurrency price tools over the Model Context Protocol",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			for name, key := range flagKeys {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := a.v.BindPFlag(key, f); err != nil {
						return fmt.Errorf("bind flag %s: %w", name, err)
					}
				}
			}
			cfg, err := appconfig.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (JSON or YAML)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also append logs to this file")
	pf.String("binance-url", binance.DefaultBaseURL, "Binance REST API base URL")
	pf.String("quote-currency", cryptoprice.DefaultQuoteCurrency, "quote asset appended to symbols")
	pf.Int("timeout", 10, "upstream request timeout in seconds")
	pf.Int("cache-ttl", 5, "price cache TTL in seconds (0 disables)")
	pf.Int("concurrency", 4, "maximum concurrent upstream lookups")
	pf.String("docs-file", "", "JSON documentation catalog enabling the DocLinks tools")

	root.AddCommand(newServeCommand(a), newStdioCommand(a), newToolsCommand(a), newCallCommand(a))
	return root
}

// bootstrap initialises logging to console and builds the registry from the loaded config.
func (a *app) bootstrap(console io.Writer) (*slog.Logger, *registry.Registry, *cryptoprice.Service, error) {
	log, err := logging.Init(console, a.cfg.LogLevel, a.cfg.LogFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	reg, svc, err := buildRegistry(a.cfg, log)
	if err != nil {
		_ = logging.Close()
		return nil, nil, nil, err
	}
	return log, reg, svc, nil
}

func buildRegistry(cfg appconfig.Config, log *slog.Logger) (*registry.Registry, *cryptoprice.Service, error) {
	client := binance.New(cfg.BinanceBaseURL, &http.Client{Timeout: cfg.RequestTimeout()})
	svc := cryptoprice.NewService(client, cryptoprice.Options{
		QuoteCurrency:  cfg.QuoteCurrency,
		CacheTTL:       cfg.CacheTTL(),
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         log.With("module", cryptoprice.ModuleName),
	})

	reg := registry.New()
	if err := reg.Register(cryptoprice.NewModule(svc)); err != nil {
		return nil, nil, err
	}

	if cfg.DocsFile != "" {
		docs, err := doclinks.LoadFile(cfg.DocsFile)
		if err != nil {
			log.Warn("documentation catalog unavailable", "path", cfg.DocsFile, "error", err)
		}
		if err := reg.Register(doclinks.NewModule(docs, log.With("module", doclinks.ModuleName))); err != nil {
			return nil, nil, err
		}
	}

	for _, info := range reg.Servers() {
		log.Info("registered server", "name", info.Name, "version", info.Version)
	}
	return reg, svc, nil
}
