// Package main is the entry point for the LendingDesk legacy import tool.
// It loads flat-file exports from the predecessor desktop system into the
// SQLite store: JSON arrays of ordered string records, including the old
// 4-field loan shape, which is upgraded on the way in.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/calliard/lendingdesk/internal/config"
	"github.com/calliard/lendingdesk/internal/legacy"
	"github.com/calliard/lendingdesk/internal/repository/sqlite"
)

var (
	flagConfig string
	flagBooks  string
	flagUsers  string
	flagLoans  string
)

var rootCmd = &cobra.Command{
	Use:   "lendingdesk-import",
	Short: "Import legacy flat-file exports into the lending store",
	Long: `lendingdesk-import reads the predecessor system's JSON exports and
loads them into the LendingDesk SQLite database.

Each export is a JSON array of ordered string records: books carry 7
fields, users 4 (raw passwords, hashed on import), loans 5 — or the
older 4-field shape without a user id, which is upgraded automatically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runImport,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default: ./config.yaml)")
	rootCmd.Flags().StringVar(&flagBooks, "books", "", "Path to the book export")
	rootCmd.Flags().StringVar(&flagUsers, "users", "", "Path to the user export")
	rootCmd.Flags().StringVar(&flagLoans, "loans", "", "Path to the loan export")
}

func runImport(cmd *cobra.Command, args []string) error {
	if flagBooks == "" && flagUsers == "" && flagLoans == "" {
		return fmt.Errorf("nothing to import: pass at least one of --books, --users, --loans")
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, sqlite.Config{
		Path:            cfg.Storage.Path,
		JournalMode:     cfg.Storage.JournalMode,
		BusyTimeout:     cfg.Storage.BusyTimeout,
		SynchronousMode: cfg.Storage.SynchronousMode,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	books, err := openOptional(flagBooks)
	if err != nil {
		return err
	}
	users, err := openOptional(flagUsers)
	if err != nil {
		return err
	}
	loans, err := openOptional(flagLoans)
	if err != nil {
		return err
	}

	importer := legacy.NewImporter(
		sqlite.NewBookRepository(db),
		sqlite.NewUserRepository(db),
		sqlite.NewLoanRepository(db),
		db,
		logger,
	)

	res, err := importer.Import(ctx, books, users, loans)
	if err != nil {
		return err
	}

	color.Green("Imported %d books, %d users, %d loans (%d legacy loan rows upgraded).",
		res.Books, res.Users, res.Loans, res.Upgraded)
	return nil
}

// openOptional opens the path when given; an empty path means "skip".
// The returned reader is nil when skipped.
func openOptional(path string) (io.Reader, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	return f, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
