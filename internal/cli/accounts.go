package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pendergraft/deploykit/internal/preflight"
)

func createAccountsCmd(a *app) *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Show the deployer address",
		Long: `Show the address PRIVATE_KEY signs as, and the networks that use it.

With --prompt and PRIVATE_KEY unset, the key is read from the terminal
without echo. The key is not stored.

EXAMPLES:
  deploykit accounts
  deploykit accounts --prompt
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}

			key := s.cfg.Credentials.PrivateKey
			if key == "" && prompt {
				key, err = a.readSecret(cmd.ErrOrStderr(), "Enter private key: ")
				if err != nil {
					return err
				}
			}

			addr, err := preflight.DeriveAddress(key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deployer: %s\n", addr.Hex())

			// Only networks signing with PRIVATE_KEY itself
			if s.cfg.Credentials.PrivateKey == "" {
				return nil
			}
			for _, name := range s.netCfg.NetworkNames() {
				n, _ := s.netCfg.Network(name)
				if len(n.Accounts) > 0 && n.Accounts[0] == key {
					fmt.Fprintf(out, "  %s (chain %d)\n", name, n.ChainID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "read the private key from the terminal when PRIVATE_KEY is unset")

	return cmd
}

// readSecret reads a line without echo from a terminal, or a plain line otherwise
func (a *app) readSecret(prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)

	if term.IsTerminal(a.stdinFd) {
		b, err := term.ReadPassword(a.stdinFd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading private key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading private key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
