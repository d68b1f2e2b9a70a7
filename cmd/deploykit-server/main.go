package main

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

	"github.com/pendergraft/deploykit/internal/assembler"
	"github.com/pendergraft/deploykit/internal/config"
	"github.com/pendergraft/deploykit/internal/observability/metrics"
	"github.com/pendergraft/deploykit/internal/preflight"
	"github.com/pendergraft/deploykit/internal/project"
	"github.com/pendergraft/deploykit/internal/server"
	"github.com/pendergraft/deploykit/internal/toolkit"
)

var version = "dev"

type serveFlags struct {
	envFiles    []string
	projectFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:     "deploykit-server",
		Short:   "Serves the assembled deployment configuration",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "dotenv files to load (default: .env, .env.local)")
	rootCmd.PersistentFlags().StringVar(&flags.projectFile, "config", "", "project file (default: deploykit.toml or dk.toml if present)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	})

	return rootCmd
}

func runServe(flags *serveFlags) error {
	cfg, err := config.Load(flags.envFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := config.NewLogger(cfg.Logging, os.Stdout)
	logger.Info("starting deploykit-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled)

	proj, projectPath, err := project.LoadOptional(flags.projectFile)
	if err != nil {
		return fmt.Errorf("loading project file: %w", err)
	}
	if proj != nil {
		logger.Info("loaded project file", "path", projectPath)
	}

	netCfg, err := assembler.Assemble(cfg.Credentials, toolkit.Default(),
		assembler.WithProject(proj),
		assembler.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	checker := preflight.NewChecker(logger).
		WithTimeout(cfg.Preflight.Timeout).
		WithRateLimit(cfg.Preflight.RequestsPerSec)

	srv := server.New(cfg, netCfg, checker, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "networks", len(netCfg.Networks))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
