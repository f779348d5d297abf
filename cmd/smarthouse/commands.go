package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/paularlott/cli"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:        "smarthouse",
		Version:     version,
		Usage:       "SmartHouse Core server",
		Description: "Serve the house, room and device API. Without a subcommand the server starts.",
		Run: func(ctx context.Context, _ *cli.Command) error {
			return run(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:        "migrate",
				Usage:       "Database migration commands",
				Description: "Inspect or change the schema of the configured database",
				Commands: []*cli.Command{
					{
						Name:  "status",
						Usage: "List applied and pending migrations",
						Run: func(ctx context.Context, _ *cli.Command) error {
							return migrateStatus(ctx, os.Stdout)
						},
					},
					{
						Name:  "up",
						Usage: "Apply all pending migrations",
						Run: func(ctx context.Context, _ *cli.Command) error {
							return migrateUp(ctx, os.Stdout)
						},
					},
					{
						Name:  "down",
						Usage: "Roll back the most recent migration",
						Run: func(ctx context.Context, _ *cli.Command) error {
							return migrateDown(ctx, os.Stdout)
						},
					},
				},
			},
		},
	}
}

// openConfiguredDatabase opens the database named by the active config
// without migrating it.
func openConfiguredDatabase() (*database.DB, error) {
	cfg, err := config.LoadOrDefault(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(database.Config{
		Path:         cfg.Database.Path,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func migrateStatus(ctx context.Context, out io.Writer) error {
	db, err := openConfiguredDatabase()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only command

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATUS\tAPPLIED AT")
	for _, r := range applied {
		fmt.Fprintf(tw, "%s\tapplied\t%s\n", r.Version, r.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(tw, "%s\tpending\t-\n", m.Version)
	}
	return tw.Flush()
}

func migrateUp(ctx context.Context, out io.Writer) error {
	db, err := openConfiguredDatabase()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Closed after the migration commits

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	fmt.Fprintln(out, "migrations applied")
	return nil
}

func migrateDown(ctx context.Context, out io.Writer) error {
	db, err := openConfiguredDatabase()
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Closed after the rollback commits

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	if len(applied) == 0 {
		fmt.Fprintln(out, "nothing to roll back")
		return nil
	}

	if err := db.MigrateDown(ctx); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	fmt.Fprintf(out, "rolled back %s\n", applied[len(applied)-1].Version)
	return nil
}
