package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deploykit/internal/explorer"
)

func createExplorerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explorer",
		Short: "Block explorer commands",
	}

	cmd.AddCommand(createExplorerURLCmd(a))
	cmd.AddCommand(createExplorerCheckCmd(a))
	cmd.AddCommand(createExplorerStatusCmd(a))

	return cmd
}

func createExplorerURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "url <network> <address|txhash>",
		Short: "Print the explorer page of an address or transaction",
		Long: `Print the explorer page of an address or transaction.

EXAMPLES:
  deploykit explorer url baseSepolia 0x5FbDB2315678afecb367f032d93F642f64180aa3
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			ep, err := explorer.Resolve(s.netCfg, args[0])
			if err != nil {
				return err
			}

			var u string
			if len(args[1]) == 66 && strings.HasPrefix(args[1], "0x") {
				u, err = ep.TxURL(args[1])
			} else {
				u, err = ep.AddressURL(args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func createExplorerCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <network>",
		Short: "Check that the explorer accepts the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			ep, err := explorer.Resolve(s.netCfg, args[0])
			if err != nil {
				return err
			}

			client := explorer.NewClient(ep, s.cfg.Explorer.Timeout, s.logger)
			if err := client.CheckAPIKey(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key %s accepted by %s\n", ep.Masked().APIKey, ep.APIURL)
			return nil
		},
	}
}

func createExplorerStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <network> <guid>",
		Short: "Show the state of a verification submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			ep, err := explorer.Resolve(s.netCfg, args[0])
			if err != nil {
				return err
			}

			status, err := explorer.NewClient(ep, s.cfg.Explorer.Timeout, s.logger).
				VerificationStatus(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			state := "failed"
			switch {
			case status.Verified:
				state = "verified"
			case status.Pending:
				state = "pending"
			}
			fmt.Fprintf(out, "%s: %s (%s)\n", status.GUID, state, status.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
