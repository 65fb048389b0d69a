package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crypto-mcp/internal/logging"
	"crypto-mcp/internal/stdio"
)

func newStdioCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve the tools over the MCP stdio transport",
		Long:  "Serve the tools over the MCP stdio transport. Logs go to stderr since stdout carries the protocol.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, reg, _, err := a.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logging.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting MCP stdio server", "tools", len(reg.ListAllTools()))
			return stdio.Run(ctx, stdio.NewServer(reg, serviceName, serviceVersion, log))
		},
	}
}
