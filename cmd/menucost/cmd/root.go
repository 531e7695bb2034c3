// Package cmd provides the CLI commands for menucost.
package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"menucost/internal/common"
	"menucost/internal/repository"
	"menucost/internal/store"
)

var (
	dbURL      string
	sqlitePath string
	verbose    bool

	cfg    *common.Config
	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "menucost",
	Short: "Ingest supplier price lists and cost recipes point-in-time",
	Long: `menucost ingests supplier price lists, recipe documents, and exchange
rate histories, normalizes everything to per-kilogram prices, and computes
recipe costs in ARS and USD as of any date.

Examples:
  menucost load --type PRICE_LIST_SHEET --date 2024-01-01 precios.xlsx
  menucost load recetas.md
  menucost cost --date 2024-01-02 "Pan"`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "postgres DSN (default $DB_URL)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "sqlite database path (used when no postgres DSN is set; default menucost.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(costCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg = common.LoadConfig()
	if dbURL != "" {
		cfg.Database.DSN = dbURL
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// openStore connects to postgres when a DSN is configured, otherwise to a
// local sqlite database. The returned cleanup closes whatever was opened.
func openStore(ctx context.Context) (store.Store, func(), error) {
	if cfg.Database.DSN != "" {
		client, pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { repository.Close(client, pool, logger) }
		return repository.NewEntStore(client, logger), cleanup, nil
	}

	path := sqlitePath
	if path == "" {
		path = "menucost.db"
	}
	client, err := repository.OpenSQLite(ctx, path, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { repository.Close(client, nil, logger) }
	return repository.NewEntStore(client, logger), cleanup, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("menucost version 0.1.0")
	},
}
