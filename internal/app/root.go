// Package app wires the LendingDesk services together and drives the
// interactive front desk loop.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/calliard/lendingdesk/internal/config"
	"github.com/calliard/lendingdesk/internal/lock"
	"github.com/calliard/lendingdesk/internal/repository/sqlite"
	"github.com/calliard/lendingdesk/internal/service"
)

var version = "dev"

// SetVersion sets the version string shown by the version command.
// Called from main with the build-time value.
func SetVersion(v string) {
	version = v
}

var (
	flagConfig  string
	flagNoColor bool
)

// app holds the wired service graph for one process.
type app struct {
	cfg     *config.Config
	db      *sqlite.DB
	ledger  *service.LedgerService
	catalog *service.CatalogService
	users   *service.UserService
	auth    *service.AuthService
	logger  zerolog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "lendingdesk",
	Short: "Library lending ledger for the front desk",
	Long: `lendingdesk tracks a library's catalog, patrons, and active loans.

It runs as an interactive front-desk session: staff log in with the
administrator credential, patrons with their USER id. All state lives in
a local SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(flagConfig)
		if err != nil {
			return err
		}
		defer a.close()
		return a.runDesk(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lendingdesk %s\n", version)
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// newApp loads configuration, opens the store, runs migrations, and
// wires the services.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if flagNoColor {
		color.NoColor = true
	}
	logger := newLogger(cfg.Logging)

	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, sqlite.Config{
		Path:            cfg.Storage.Path,
		JournalMode:     cfg.Storage.JournalMode,
		BusyTimeout:     cfg.Storage.BusyTimeout,
		SynchronousMode: cfg.Storage.SynchronousMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	books := sqlite.NewBookRepository(db)
	users := sqlite.NewUserRepository(db)
	loans := sqlite.NewLoanRepository(db)
	seqs := sqlite.NewSequenceRepository(db)
	locker := lock.NewMemoryLocker()

	return &app{
		cfg:     cfg,
		db:      db,
		ledger:  service.NewLedgerService(books, loans, db, locker, cfg.Lending.Period(), logger),
		catalog: service.NewCatalogService(books, loans, seqs, db, locker, logger),
		users:   service.NewUserService(users, loans, seqs, db, locker, logger),
		auth:    service.NewAuthService(users, cfg.Auth.AdminID, cfg.Auth.AdminPassword, logger),
		logger:  logger,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing store")
	}
}
