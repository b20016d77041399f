package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDesk/internal/config"
	"liquidityDesk/internal/horizon"
	"liquidityDesk/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lpctl",
		Short:        "Constant-product liquidity pool desk",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("horizon-url", "https://horizon.stellar.org", "Horizon API base URL")
	pf.Duration("timeout", 10*time.Second, "HTTP request timeout")
	pf.Int("max-retries", 3, "maximum retry attempts for reads")
	pf.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	pf.String("tolerance", "0.005", "slippage tolerance as a fraction, in [0, 1)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newQuoteCmd(), newWatchCmd(), newActionCmd())
	return root
}

// setup loads configuration for cmd and builds the logger.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.With(zap.String("cmd", cmd.CommandPath())), nil
}

func newHorizonClient(cfg config.Config, logger *zap.Logger) (*horizon.Client, error) {
	if cfg.HorizonURL == "" {
		return nil, fmt.Errorf("horizon url is required")
	}
	return horizon.NewClient(horizon.Options{
		BaseURL:      cfg.HorizonURL,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger.Named("horizon"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
