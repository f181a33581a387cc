package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hiretrack/internal/config"
	"hiretrack/internal/logging"
)

type cli struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	root := &cobra.Command{
		Use:           "hiretrackctl",
		Short:         "Operator tooling for the hiretrack api and notification queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if err := os.Setenv(config.FileEnvVar, path); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logging.New(cfg.LogLevel, "console")
			return nil
		},
	}
	root.PersistentFlags().String("config", "", "TOML config file (overrides "+config.FileEnvVar+")")

	root.AddCommand(
		c.migrateCmd(),
		c.seedCmd(),
		c.tokenCmd(),
		c.sendTestEmailCmd(),
		c.statsCmd(),
		c.requeueCmd(),
		c.deadLettersCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
