package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	postgresRepo "github.com/herdpool/herdpool/internal/adapter/repository/postgres"
	"github.com/herdpool/herdpool/internal/domain"
	"github.com/herdpool/herdpool/internal/infrastructure/auth"
	"github.com/herdpool/herdpool/internal/infrastructure/config"
	"github.com/herdpool/herdpool/internal/infrastructure/postgres"
	"github.com/herdpool/herdpool/internal/usecase"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "herdpool-cli",
		Short: "Herdpool admin tool",
		Long:  `Administrative commands for the herdpool settlement engine.`,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reapCmd())
	rootCmd.AddCommand(seedListingCmd())
	rootCmd.AddCommand(consistencyCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Println("migrations rolled back")
			return nil
		},
	})

	return cmd
}

func reapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Expire stale records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "intents",
		Short: "Fail pending payment intents older than the intent TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				reaper := usecase.NewReaperUseCase(
					postgresRepo.NewIntentRepository(pool),
					postgresRepo.NewGroupRepository(pool),
					nil,
				)
				n, err := reaper.ExpireIntents(ctx, cfg.IntentTTL)
				if err != nil {
					return err
				}
				fmt.Printf("expired %d intents\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "groups",
		Short: "Cancel draft groups older than the draft TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				reaper := usecase.NewReaperUseCase(
					postgresRepo.NewIntentRepository(pool),
					postgresRepo.NewGroupRepository(pool),
					nil,
				)
				n, err := reaper.ExpireDraftGroups(ctx, cfg.DraftGroupTTL)
				if err != nil {
					return err
				}
				fmt.Printf("expired %d draft groups\n", n)
				return nil
			})
		},
	})

	return cmd
}

func seedListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-listing <livestock-id> <price> <minimum-amount>",
		Short: "Insert or update a catalog listing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid price: %w", err)
			}
			minimum, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid minimum amount: %w", err)
			}

			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				repo := postgresRepo.NewListingRepository(pool)
				listing := &domain.Listing{ID: args[0], Price: price, MinimumAmount: minimum}
				if err := repo.Upsert(ctx, listing); err != nil {
					return err
				}
				printJSON(map[string]string{
					"id":             listing.ID,
					"price":          listing.Price.String(),
					"minimum_amount": listing.MinimumAmount.String(),
				})
				return nil
			})
		},
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency <user-id>",
		Short: "Check that a wallet balance matches its ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				walletUC := usecase.NewWalletUseCase(
					postgresRepo.NewTxManager(pool),
					postgresRepo.NewWalletRepository(pool),
					postgresRepo.NewEntryRepository(pool),
					nil,
					nil,
					postgresRepo.NewULIDGenerator(),
					nil,
					nil,
				)
				if err := walletUC.CheckConsistency(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("consistency check PASSED")
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		email string
		role  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a JWT for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			manager := auth.NewJWTManager(cfg.JWTSecret, ttl)
			token, err := manager.Generate(&domain.User{
				ID:    args[0],
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "buyer", "Role claim (admin, buyer, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to marshal response: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
