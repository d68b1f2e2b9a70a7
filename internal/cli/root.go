// Package cli implements the deploykit command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deploykit/internal/assembler"
	"github.com/pendergraft/deploykit/internal/config"
	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/project"
	"github.com/pendergraft/deploykit/internal/toolkit"
)

// globalFlags are the persistent flags of every command
type globalFlags struct {
	envFiles   []string
	configFile string
	logLevel   string
	logFormat  string
}

// app carries what commands share. Tests swap the provider and stdin.
type app struct {
	flags    globalFlags
	provider toolkit.Provider
	stdin    io.Reader
	stdinFd  int
}

// session is the loaded state a command works with
type session struct {
	cfg    *config.Config
	netCfg *netconfig.Config
	logger *slog.Logger
}

// Execute runs the CLI
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version, newApp()).ExecuteContext(ctx)
}

func newApp() *app {
	return &app{
		provider: toolkit.Default(),
		stdin:    os.Stdin,
		stdinFd:  int(os.Stdin.Fd()),
	}
}

func newRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deploykit",
		Short: "Deployment configuration for EVM networks",
		Long: `deploykit assembles the network configuration contracts are deployed
and verified with: the toolkit networks, Base Sepolia with its Basescan
registration, and anything declared in deploykit.toml.

Credentials come from PRIVATE_KEY and BASESCAN_API_KEY, read from the
environment or from .env and .env.local.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringSliceVar(&a.flags.envFiles, "env-file", nil, "dotenv files to load (default: .env, .env.local if present)")
	rootCmd.PersistentFlags().StringVar(&a.flags.configFile, "config", "", "project file (default: deploykit.toml or dk.toml)")
	rootCmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&a.flags.logFormat, "log-format", "", "log format: text or json (default from LOG_FORMAT)")

	rootCmd.AddCommand(createConfigCmd(a))
	rootCmd.AddCommand(createNetworksCmd(a))
	rootCmd.AddCommand(createAccountsCmd(a))
	rootCmd.AddCommand(createExplorerCmd(a))

	return rootCmd
}

// loadConfig reads the environment, applying the logging flags on top
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.flags.envFiles...)
	if err != nil {
		return nil, err
	}
	if a.flags.logLevel != "" {
		cfg.Logging.Level = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.Logging.Format = a.flags.logFormat
	}
	return cfg, nil
}

// open loads the environment and project file and assembles the configuration.
// Logs go to stderr so command output stays parseable.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	proj, path, err := project.LoadOptional(a.flags.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading project file: %w", err)
	}
	if proj != nil {
		logger.Debug("loaded project file", "path", path)
	}

	netCfg, err := assembler.Assemble(cfg.Credentials, a.provider,
		assembler.WithProject(proj),
		assembler.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, netCfg: netCfg, logger: logger}, nil
}
