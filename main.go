package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"warranty-analytics/pkg/cache"
	"warranty-analytics/pkg/config"
	"warranty-analytics/pkg/database"
	"warranty-analytics/pkg/models"
	"warranty-analytics/pkg/source"
)

var (
	// Global flags
	verbose    bool
	configPath string
	inputPath  string
	nowFlag    string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "warranty-analytics",
	Short: "Warranty and return claim analytics",
	Long: `Buckets warranty and return claims by period and computes monthly purchase-cohort survival.

Registrations are read from --input (a JSON export) or from the local snapshot cache that
"fetch" fills from the registrations API. Purchase volumes live in the configured database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// referenceTime resolves --now, the date analyses are computed as of. Cache freshness does not use it.
func referenceTime() (time.Time, error) {
	if nowFlag == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", nowFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q (want YYYY-MM-DD): %w", nowFlag, err)
	}
	return t.UTC(), nil
}

// loadRegistrations reads --input when set, otherwise the cached snapshot.
func loadRegistrations() ([]models.Registration, error) {
	if inputPath != "" {
		regs, err := source.LoadFile(inputPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("registrations loaded from file",
			zap.String("path", inputPath),
			zap.Int("count", len(regs)))
		return regs, nil
	}

	store, err := cache.Open(cacheConfig(), logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := store.Load(cfg.Cache.MaxAge)
	switch {
	case errors.Is(err, cache.ErrNoSnapshot):
		return nil, errors.New("no cached registrations: run \"fetch\" or pass --input")
	case errors.Is(err, cache.ErrStale):
		logger.Warn("cached registrations are stale, run \"fetch\" to refresh",
			zap.Time("fetched_at", snap.FetchedAt),
			zap.Duration("max_age", cfg.Cache.MaxAge))
	case err != nil:
		return nil, err
	}
	return snap.Registrations, nil
}

func cacheConfig() cache.Config {
	return cache.Config{Dir: cfg.Cache.Dir, TTL: cfg.Cache.TTL}
}

// openDB opens the configured database.
func openDB() (*database.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, errors.New("no database configured: set database.dsn or WARRANTY_DB_DSN")
	}
	db, dsnUsed, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	logger.Debug("connected", zap.String("dsn", database.Redact(dsnUsed)), zap.Stringer("dialect", db.Dialect))
	return db, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func logQuality(what string, q models.DataQuality) {
	logger.Info(what,
		zap.Int("total", q.Total),
		zap.Int("valid", q.Valid),
		zap.Int("excluded", q.Excluded))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "warranty-analytics.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "Registrations JSON file (default: cached snapshot)")
	rootCmd.PersistentFlags().StringVar(&nowFlag, "now", "", "Reference date YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&volumeTable, "table", database.DefaultVolumeTable, "Purchase volume table (volumes, cohort)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(facetsCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(overTimeCmd)
	rootCmd.AddCommand(cohortCmd)
	rootCmd.AddCommand(volumesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
