package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"hrify/internal/domain/draft"
	"hrify/internal/domain/tenant"
	"hrify/internal/platform/config"
	cryptoutil "hrify/internal/platform/crypto"
	"hrify/internal/platform/db"
	"hrify/internal/platform/jobs"
)

const redacted = "********"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrifyctl",
		Short:         "Operator tooling for the hrify portal service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newDraftCmd(), newTenantCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if dir == "" {
				dir = cfg.MigrationsDir
			}
			pool, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(cmd.Context(), pool, dir)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", version)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default MIGRATIONS_DIR)")
	return cmd
}

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect and maintain employee form drafts",
	}

	var owner draft.Owner
	ownerFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&owner.Tenant, "tenant", tenant.BaseLabel, "tenant label")
		c.Flags().StringVar(&owner.UserID, "user", "", "user id")
		_ = c.MarkFlagRequired("user")
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored draft of one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDrafts(cmd.Context(), func(svc *draft.Service) error {
				d := svc.Load(cmd.Context(), owner)
				if d == nil {
					return fmt.Errorf("no draft stored for %s", owner.Key())
				}
				if d.AccountDetails != nil && d.AccountDetails.Password != "" {
					d.AccountDetails.Password = redacted
				}
				out, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d, updated %s\n%s\n", d.Version, d.UpdatedAt.Format(time.RFC3339), out)
				return nil
			})
		},
	}
	ownerFlags(show)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored draft of one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDrafts(cmd.Context(), func(svc *draft.Service) error {
				if err := svc.Clear(cmd.Context(), owner); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared", owner.Key())
				return nil
			})
		},
	}
	ownerFlags(clearCmd)

	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove drafts untouched for longer than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				olderThan = config.Load().DraftTTL
			}
			return withDrafts(cmd.Context(), func(svc *draft.Service) error {
				runner := jobs.New(svc, jobs.Options{DraftTTL: olderThan})
				result, err := runner.PurgeDrafts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purge complete (older than %s): %v\n", olderThan, result)
				return nil
			})
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (default DRAFT_TTL)")

	cmd.AddCommand(show, clearCmd, purge)
	return cmd
}

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant helpers",
	}
	var baseDomain string
	resolve := &cobra.Command{
		Use:   "resolve HOST",
		Short: "Show the tenant a hostname maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseDomain == "" {
				baseDomain = config.Load().BaseDomain
			}
			t := tenant.Resolve(args[0], baseDomain)
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s %s=%s\n", tenant.HeaderTenant, t.Label, tenant.HeaderTenantType, t.Type)
			return nil
		},
	}
	resolve.Flags().StringVar(&baseDomain, "base-domain", "", "base domain (default BASE_DOMAIN)")
	cmd.AddCommand(resolve)
	return cmd
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.Connect(ctx, cfg)
}

func withDrafts(ctx context.Context, fn func(*draft.Service) error) error {
	cfg := config.Load()
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return err
	}
	svc := draft.NewService(draft.NewPGStore(pool), draft.WithSealer(sealer), draft.WithEventLog(draft.NewEventLog(pool)))
	return fn(svc)
}
