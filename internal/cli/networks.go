package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deploykit/internal/preflight"
)

var errChecksFailed = errors.New("one or more preflight checks failed")

type networkRow struct {
	Name       string `json:"name"`
	ChainID    int64  `json:"chainId"`
	URL        string `json:"url"`
	Verifiable bool   `json:"verifiable"`
}

func createNetworksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "Inspect declared networks",
	}

	cmd.AddCommand(createNetworksListCmd(a))
	cmd.AddCommand(createNetworksCheckCmd(a))

	return cmd
}

func createNetworksListCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared networks",
		Long: `List every declared network with its chain ID, RPC URL and whether
contracts deployed there can be verified on an explorer.

EXAMPLES:
  deploykit networks list
  deploykit networks list --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}

			names := s.netCfg.NetworkNames()
			rows := make([]networkRow, 0, len(names))
			for _, name := range names {
				n, _ := s.netCfg.Network(name)
				rows = append(rows, networkRow{
					Name:       name,
					ChainID:    n.ChainID,
					URL:        n.URL,
					Verifiable: s.netCfg.Verifiable(name),
				})
			}
			return printNetworks(cmd.OutOrStdout(), rows, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func printNetworks(out io.Writer, rows []networkRow, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"networks": rows,
			"count":    len(rows),
		})
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHAIN ID\tURL\tVERIFIABLE")
	for _, r := range rows {
		verifiable := "no"
		if r.Verifiable {
			verifiable = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Name, r.ChainID, r.URL, verifiable)
	}
	return w.Flush()
}

func createNetworksCheckCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [network...]",
		Short: "Run preflight checks against networks",
		Long: `Check that networks are usable for deployment: the private key decodes,
the RPC endpoint answers, and it serves the declared chain ID. The deployer
balance is reported.

Without arguments every declared network is checked. Exits non-zero when any
check fails.

EXAMPLES:
  deploykit networks check baseSepolia
  deploykit networks check --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}

			checker := preflight.NewChecker(s.logger).
				WithTimeout(s.cfg.Preflight.Timeout).
				WithRateLimit(s.cfg.Preflight.RequestsPerSec)

			report, err := checker.CheckAll(cmd.Context(), s.netCfg, args...)
			if err != nil {
				return err
			}

			if err := printReport(cmd.OutOrStdout(), report, jsonOutput); err != nil {
				return err
			}
			if !report.OK {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func printReport(out io.Writer, report *preflight.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, r := range report.Results {
		status := "OK"
		if !r.OK {
			status = "FAILED"
		}
		fmt.Fprintf(out, "%s (chain %d) %s\n", r.Network, r.ChainID, status)
		for _, c := range r.Checks {
			mark := "✓"
			if !c.Passed {
				mark = "✗"
			}
			fmt.Fprintf(out, "  %s %-16s %s\n", mark, c.Name, c.Message)
		}
	}
	return nil
}
