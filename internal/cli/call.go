package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crypto-mcp/internal/logging"
)

func newCallCommand(a *app) *cobra.Command {
	var (
		rawArgs string
		server  string
	)
	cmd := &cobra.Command{
		Use:   "call <tool> [key=value ...]",
		Short: "Invoke a tool once and print its result",
		Example: `  crypto-mcp call get_crypto_price symbol=BTC
  crypto-mcp call get_multiple_prices --args '{"symbols":"BTC,ETH"}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseToolArgs(rawArgs, args[1:])
			if err != nil {
				return err
			}

			_, reg, _, err := a.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logging.Close()

			var result any
			if server != "" {
				result, err = reg.CallToolOn(cmd.Context(), server, args[0], toolArgs)
			} else {
				result, err = reg.CallTool(cmd.Context(), args[0], toolArgs)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", "tool arguments as a JSON object")
	cmd.Flags().StringVar(&server, "server", "", "only route to this server module")
	return cmd
}

// parseToolArgs merges a JSON object with key=value pairs; pairs win.
func parseToolArgs(raw string, pairs []string) (map[string]any, error) {
	out := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
		if out == nil {
			out = map[string]any{}
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		out[key] = value
	}
	return out, nil
}
