// Package cli wires configuration into the billing service and exposes it
// as cobra commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"billing-service/config"
	"billing-service/database"
	"billing-service/internal/infra/redislock"
	stripeinfra "billing-service/internal/infra/stripe"
	"billing-service/internal/logger"
	"billing-service/internal/reconcile"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "billing-service",
	Short:   "Workspace billing reconciliation service",
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCouponsCmd)
	rootCmd.AddCommand(resyncItemsCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(config.Load())
		if err != nil {
			return err
		}
		defer app.close()
		app.log.Info("migrations applied")
		return nil
	},
}

var sweepCouponsCmd = &cobra.Command{
	Use:   "sweep-coupons",
	Short: "Renew or expire monthly coupons once",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(config.Load())
		if err != nil {
			return err
		}
		defer app.close()

		report, err := app.svc.SweepCoupons(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var resyncItemsCmd = &cobra.Command{
	Use:   "resync-items [workspace-id]",
	Short: "Resync subscription items with the catalog",
	Long:  "Resync one workspace's subscription items, or every provisioned workspace when no id is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap(config.Load())
		if err != nil {
			return err
		}
		defer app.close()

		if len(args) == 1 {
			res, err := app.svc.SyncItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(res)
		}
		results, err := app.svc.SyncAll(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("billing-service %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type application struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	svc    *reconcile.Service
	locker *redislock.Locker
}

func bootstrap(cfg config.Config) (*application, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	clients, err := stripeinfra.NewRegistry(cfg.StripeTestKey, cfg.StripeLiveKey)
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, log: log, db: db}
	opts := reconcile.Options{
		Concurrency:               cfg.SweepConcurrency,
		ThresholdCents:            cfg.ThresholdCents,
		ThresholdWithPaymentCents: cfg.ThresholdWithPaymentCents,
	}
	if cfg.RedisURL != "" {
		locker, err := redislock.Dial(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.locker = locker
		opts.Locker = locker
	} else {
		log.Warn("REDIS_URL not set; coupon sweeps are not serialised across instances")
	}

	app.svc = reconcile.New(db, clients, log, opts)
	return app, nil
}

func (a *application) close() {
	if err := a.locker.Close(); err != nil {
		a.log.Warn("close redis", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
