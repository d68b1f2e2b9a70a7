package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/project"
)

func createConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigShowCmd(a))
	cmd.AddCommand(createConfigInitCmd(a))

	return cmd
}

func createConfigShowCmd(a *app) *cobra.Command {
	var format string
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the assembled configuration",
		Long: `Print the assembled configuration.

Private keys and API keys are masked unless --reveal is given.

EXAMPLES:
  deploykit config show
  deploykit config show --format yaml
  deploykit config show --format toml --reveal > resolved.toml
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			cfg := s.netCfg
			if !reveal {
				cfg = cfg.Masked()
			}
			return writeConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or toml")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets in clear")

	return cmd
}

func writeConfig(w io.Writer, cfg *netconfig.Config, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or toml)", format)
	}
}

func createConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project file",
		Long: `Create a deploykit.toml project file in the current directory.

EXAMPLES:
  deploykit config init
  deploykit config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), a.flags.configFile, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing project file")

	return cmd
}

func runConfigInit(out io.Writer, path string, force bool) error {
	if path == "" {
		path = project.ConfigFiles[0]
		for _, existing := range project.ConfigFiles {
			if _, err := os.Stat(existing); err == nil && !force {
				return fmt.Errorf("project file already exists at %s (use --force to overwrite)", existing)
			}
		}
	} else if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("project file already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(path, []byte(project.Template), 0644); err != nil {
		return fmt.Errorf("writing project file: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", path)
	return nil
}
