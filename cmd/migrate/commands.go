package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/config"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/logger"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type rootOptions struct {
	migrationsPath string
	databaseURL    string
	logLevel       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the SmartAccountant database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.migrationsPath, "path", defaultMigrationsPath, "Path to the migrations directory")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres URL; defaults to the configured database")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newStepsCmd(opts),
		newVersionCmd(opts),
		newForceCmd(opts),
		newCreateCmd(opts),
		newListCmd(opts),
	)
	return cmd
}

// withMigrator opens a Migrator for the duration of fn
func (o *rootOptions) withMigrator(fn func(*migration.Migrator, *zap.Logger) error) error {
	log, err := logger.New(logger.Config{Level: o.logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	url := o.databaseURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		url = cfg.Database.DSN()
	}

	path, err := filepath.Abs(o.migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	m, err := migration.NewFromURL(url, path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return fn(m, log)
}

func newUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				return m.Up()
			})
		},
	}
}

func newDownCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("down drops every table; rerun with --yes to confirm")
			}
			return opts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				return m.Down()
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm rolling back all migrations")
	return cmd
}

func newStepsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back when N is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[0], err)
			}
			return opts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				return m.Steps(n)
			})
		},
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				status, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", status.Version, status.Dirty)
				return nil
			})
		},
	}
}

func newForceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return opts.withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				return m.Force(v)
			})
		},
	}
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME...",
		Short: "Write the next numbered up/down migration pair",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(opts.migrationsPath, strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created migration %06d_%s\n", mf.Version, mf.Name)
			fmt.Fprintf(out, "  up:   %s\n", mf.UpPath)
			fmt.Fprintf(out, "  down: %s\n", mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Comment written at the top of the files")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migration files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := migration.ListMigrations(opts.migrationsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No migrations found")
				return nil
			}
			for _, mf := range list {
				pair := "ok"
				if mf.UpPath == "" || mf.DownPath == "" {
					pair = "incomplete"
				}
				fmt.Fprintf(out, "%06d  %-40s %s\n", mf.Version, mf.Name, pair)
			}
			return nil
		},
	}
}
