package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// env carries the global flags shared by every subcommand.
type env struct {
	configPath string
	driver     string
	userID     string
	logLevel   string

	cfg config.Config
	ctx context.Context
}

func newRootCommand() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Personal finance ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.configPath, "config", os.Getenv("LEDGER_CONFIG"), "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&e.driver, "store", "", "store driver (memory|bigquery), overrides store.driver")
	rootCmd.PersistentFlags().StringVar(&e.userID, "user", os.Getenv("LEDGER_USER_ID"), "user the command acts for")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level, overrides log_level")

	rootCmd.AddCommand(
		newAccountsCommand(e),
		newTransactionsCommand(e),
		newGoalsCommand(e),
		newIngestCommand(e),
		newParseCommand(e),
		newUploadCommand(e),
		newNotionSyncCommand(e),
	)

	return rootCmd
}

func (e *env) load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.driver != "" {
		cfg.Store.Driver = e.driver
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.WithLevel(logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}), cfg.LogLevel)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.ctx = logger.WithContext(ctx, log)
	return nil
}

// open builds the services. The caller closes the returned App.
func (e *env) open() (*app.App, error) {
	return app.Build(e.ctx, e.cfg)
}

func (e *env) requireUser() (string, error) {
	if e.userID == "" {
		return "", fmt.Errorf("--user (or LEDGER_USER_ID) is required")
	}
	return e.userID, nil
}
