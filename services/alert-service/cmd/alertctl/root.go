package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/afikmenashe/travel-alerting/pkg/shared"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/app"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/config"
)

var cfg = &config.Config{}

var rootCmd = &cobra.Command{
	Use:   "alertctl",
	Short: "Operate the travel alert engine",
	Long: `alertctl refreshes, dismisses and sends a user's travel alerts using the same
engine and store as the alert-service, and enqueues refresh requests for the alert-worker.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		shared.SetupLogging(cfg.LogLevel)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	shared.LoadDotEnv()

	fs := flag.NewFlagSet("alertctl", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
}

// withEngine builds the engine, runs fn and releases the engine's connections.
func withEngine(ctx context.Context, fn func(*app.App) error) error {
	engine, err := app.Build(ctx, *cfg, nil)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(engine)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
