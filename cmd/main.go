package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/umar-io/lease-agreement-generator/internal/config"
	"github.com/umar-io/lease-agreement-generator/internal/logging"
	"go.uber.org/zap"
)

const (
	version     = "1.0.0"
	serviceName = "leasegen"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	ConfigPath string
}

func main() {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Lease agreement generator",
		Long:          "Generates lease agreement PDFs, stores them and emails them to tenants.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", os.Getenv("LEASEGEN_CONFIG"),
		"path to a YAML config file (default config.yaml if present)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRenderCommand())

	return cmd
}

// loadRuntime reads configuration and builds the process logger.
func loadRuntime(opts *rootOptions) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
