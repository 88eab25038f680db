package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/config"
	"github.com/spec-kit/roster-service/internal/observability"
	"github.com/spec-kit/roster-service/internal/persistence"
	"github.com/spec-kit/roster-service/internal/repository"
	"github.com/spec-kit/roster-service/internal/seed"
	"github.com/spec-kit/roster-service/internal/service"
	"github.com/spec-kit/roster-service/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts    seed.Options
		migrate bool
	)

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Fill the roster with a generated organisation chart",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			if migrate {
				if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
					return err
				}
			}

			redis := persistence.NewRedis(ctx, cfg.Redis, logger)
			defer redis.Close()

			store := repository.NewStore(pg.PoolHandle())
			cache := service.NewCandidateCache(store.Employees(), redis.Client, cfg.Roster.CandidateCacheTTL(), logger)

			result, err := seed.Run(ctx, store, cache, opts, logger)
			if err != nil {
				return err
			}
			logger.Info("done", zap.Int("positions", result.Positions), zap.Int64("employees", result.Employees))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Employees, "employees", 200, "number of employees to generate")
	cmd.Flags().IntVar(&opts.Levels, "levels", 5, "depth of the generated hierarchy")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "truncate employees and positions first")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "random seed")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply embedded migrations before seeding")
	return cmd
}
