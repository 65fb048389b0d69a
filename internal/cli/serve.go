package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crypto-mcp/internal/logging"
	"crypto-mcp/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a, cmd)
		},
	}
	f := cmd.Flags()
	f.String("port", "8766", "listen port")
	f.String("token", "", "bearer token required on /mcp and /sse")
	f.String("tls-cert", "", "TLS certificate file")
	f.String("tls-key", "", "TLS key file")
	f.StringSlice("prefetch", nil, "symbols warmed at startup and by /mcp/scheduled")
	return cmd
}

func runServe(ctx context.Context, a *app, cmd *cobra.Command) error {
	log, reg, svc, err := a.bootstrap(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer logging.Close()

	cfg := a.cfg
	if cfg.Token == "" {
		log.Warn("token not set; endpoints will be open. Set CRYPTO_MCP_TOKEN or MCP_TOKEN to secure.")
	}

	srv := server.New(server.Config{
		Name:            serviceName,
		Version:         serviceVersion,
		Token:           cfg.Token,
		PrefetchSymbols: cfg.PrefetchSymbols,
	}, reg, svc, log)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.PrefetchSymbols) > 0 {
		go func() {
			warmed := svc.Prefetch(ctx, cfg.PrefetchSymbols)
			log.Info("prefetch complete", "requested", len(cfg.PrefetchSymbols), "warmed", warmed)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting MCP HTTP server", "addr", httpSrv.Addr, "tls", cfg.TLSEnabled())
		if cfg.TLSEnabled() {
			errCh <- httpSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		log.Warn("TLS not configured; serving plain HTTP. Run behind a TLS-terminating proxy.")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
