
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olcayay/shopify-tracker-sub001/internal/config"
	"github.com/olcayay/shopify-tracker-sub001/internal/crawler"
	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
	"github.com/olcayay/shopify-tracker-sub001/internal/store"
	"github.com/olcayay/shopify-tracker-sub001/pkg/logger"
)

var (
	flagConfig   string
	flagDatabase string
	flagLogLevel string
)

// env is what every subcommand works from, built once before it runs.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	parser *parser.Parser
}

var app env

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Extract, mine and compare marketplace app listings",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagDatabase != "" {
			cfg.Database = flagDatabase
		}
		level := cfg.Level()
		if flagLogLevel != "" {
			if level, err = logger.ParseLevel(flagLogLevel); err != nil {
				return err
			}
		}
		log := logger.New(level)
		slog.SetDefault(log)

		app = env{cfg: cfg, log: log, parser: parser.New(cfg.ParserOptions(log)...)}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db", "", "path to the sqlite database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(parseCmd, keywordsCmd, similarityCmd, ingestCmd, fetchCmd, competitorCmd, rankCmd)
}

func (e env) openStore() (*store.Store, error) {
	return store.Open(e.cfg.Database)
}

func (e env) crawler() *crawler.Client {
	return crawler.New(crawler.Options{
		Timeout:   e.cfg.FetchTimeout(),
		SizeCap:   e.cfg.Fetch.SizeCapBytes,
		UserAgent: e.cfg.Fetch.UserAgent,
		Logger:    e.log,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
