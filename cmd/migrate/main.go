package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/migrations"
)

func main() {
	var (
		projectID     = flag.String("project", os.Getenv("BQ_PROJECT_ID"), "GCP project ID (or set BQ_PROJECT_ID)")
		datasetID     = flag.String("dataset", envOr("BQ_DATASET", "finance"), "BigQuery dataset ID (or set BQ_DATASET)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Read migrations from this directory instead of the embedded set")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *projectID == "" {
		log.Fatal().Msg("-project flag or BQ_PROJECT_ID is required")
	}

	source, err := migrationSource(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open migrations")
	}
	all, err := readMigrations(source, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(all)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{client: client, projectID: *projectID, datasetID: *datasetID, appliedBy: *appliedBy, log: log}
	if err := m.run(ctx, all, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// migrationSource returns dir as a filesystem, or the embedded migrations
// when dir is empty.
func migrationSource(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(migrations.BigQuery, "bigquery")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations directory: %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
	log       zerolog.Logger
}

func (m *migrator) run(ctx context.Context, all []Migration, dryRun bool) error {
	m.log.Info().Str("project", m.projectID).Str("dataset", m.datasetID).Msg("Connected to BigQuery")

	if !dryRun {
		if err := m.exec(ctx, schemaMigrationsDDL(m.projectID, m.datasetID)); err != nil {
			return fmt.Errorf("ensure schema_migrations: %w", err)
		}
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	m.log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	pending, drifted := plan(all, applied)
	for _, d := range drifted {
		m.log.Warn().Int("version", d.Version).Str("name", d.Name).Msg("Applied migration file has changed since it was run")
	}

	if len(pending) == 0 {
		m.log.Info().Msg("No new migrations to apply. Database is up to date.")
		return nil
	}

	for _, mig := range pending {
		if dryRun {
			m.log.Info().Str("migration", mig.Filename).Msg("[DRY RUN] Would apply")
			continue
		}

		m.log.Info().Str("migration", mig.Filename).Msg("Applying")
		if err := m.exec(ctx, mig.SQL); err != nil {
			return fmt.Errorf("execute %s: %w", mig.Filename, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return fmt.Errorf("record %s: %w", mig.Filename, err)
		}
	}

	if !dryRun {
		m.log.Info().Int("applied", len(pending)).Msg("Migrations applied")
	}
	return nil
}

func (m *migrator) exec(ctx context.Context, sql string) error {
	job, err := m.client.Query(sql).Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) ([]AppliedMigration, error) {
	it, err := m.client.Query(appliedMigrationsSQL(m.projectID, m.datasetID)).Read(ctx)
	if err != nil {
		// In a dry run the table may not exist yet.
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func (m *migrator) record(ctx context.Context, mig Migration) error {
	q := m.client.Query(recordMigrationSQL(m.projectID, m.datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	return status.Err()
}
