// Command migrate applies the SQL files under migrations/bigquery to a
// BigQuery dataset, recording each in schema_migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

func main() {
	cfg := config.Default()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	projectID := flag.String("project", cfg.Store.ProjectID, "GCP project ID (required)")
	datasetID := flag.String("dataset", cfg.Store.Dataset, "BigQuery dataset ID")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	dir := flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
	dryRun := flag.Bool("dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	log, err := logger.WithLevel(logger.New(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *projectID == "" {
		log.Fatal().Msg("-project flag (or GOOGLE_CLOUD_PROJECT) is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	migrations, skipped, err := loadMigrations(os.DirFS(*dir), *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("Failed to read migrations")
	}
	for _, name := range skipped {
		log.Warn().Str("file", name).Msg("Skipping file with invalid name")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	r := &runner{client: client, projectID: *projectID, datasetID: *datasetID, appliedBy: *appliedBy}
	if err := migrate(ctx, r, migrations, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func migrate(ctx context.Context, r *runner, migrations []Migration, dryRun bool) error {
	log := logger.FromContext(ctx).With().
		Str("project_id", r.projectID).
		Str("dataset_id", r.datasetID).
		Logger()

	if err := r.ensureDataset(ctx); err != nil {
		return err
	}
	if err := r.ensureSchemaMigrationsTable(ctx); err != nil {
		return err
	}
	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(migrations, applied)
	if err != nil {
		return err
	}

	log.Info().Int("applied", len(applied)).Int("pending", len(pending)).Msg("Checked migration state")

	for _, m := range pending {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		if dryRun {
			mlog.Info().Msg("[DRY RUN] Would apply migration")
			continue
		}
		mlog.Info().Msg("Applying migration")
		if err := r.apply(ctx, m); err != nil {
			return err
		}
		mlog.Info().Msg("Applied migration")
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Dataset is up to date.")
	}
	return nil
}
