package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thanhdhxd/logbook-app/config"
	"github.com/Thanhdhxd/logbook-app/store"

	"github.com/spf13/cobra"
)

var (
	// driver overrides STORE_DRIVER when set.
	driver  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "logbookctl",
	Short: "Operator tool for the farm logbook backend",
	Long: `logbookctl manages the logbook database directly, without going
through the HTTP API. It reads the same environment (.env, STORE_DRIVER,
MONGO_URI, SQLITE_PATH, ...) as the server.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "store driver, mongo or sqlite (default from STORE_DRIVER)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// env is what every subcommand works with.
type env struct {
	cfg config.Config
	log *slog.Logger
	st  store.Store
}

// setup loads the configuration and connects the store. The caller closes it.
func setup(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if driver != "" {
		if driver != config.DriverMongo && driver != config.DriverSQLite {
			return nil, fmt.Errorf("--driver must be %q or %q", config.DriverMongo, config.DriverSQLite)
		}
		cfg.StoreDriver = driver
	}
	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	log.Debug("store connected", "driver", cfg.StoreDriver)
	return &env{cfg: cfg, log: log, st: st}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.st.Close(ctx); err != nil {
		e.log.Warn("store close", "err", err)
	}
}
