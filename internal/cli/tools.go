package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"crypto-mcp/internal/logging"
)

func newToolsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List every registered tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, reg, _, err := a.bootstrap(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logging.Close()

			out := cmd.OutOrStdout()
			tools := reg.ListAllTools()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tools)
			}

			name := color.New(color.FgGreen, color.Bold).SprintFunc()
			server := color.New(color.FgCyan).SprintFunc()
			for _, t := range tools {
				fmt.Fprintf(out, "%s [%s]\n    %s\n", name(t.Name), server(t.Server), t.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tool descriptors as JSON")
	return cmd
}
