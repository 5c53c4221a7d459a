package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// runner applies migrations to one dataset.
type runner struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
}

func (r *runner) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", r.projectID, r.datasetID)
}

func (r *runner) exec(ctx context.Context, sql string, params ...bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
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

// ensureDataset creates the dataset when it does not exist yet.
func (r *runner) ensureDataset(ctx context.Context) error {
	ds := r.client.Dataset(r.datasetID)
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("ensureDataset: %w", err)
	}
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
		return fmt.Errorf("ensureDataset: creating %s: %w", r.datasetID, err)
	}
	return nil
}

func (r *runner) ensureSchemaMigrationsTable(ctx context.Context) error {
	sql := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  version    INT64 NOT NULL,
  name       STRING NOT NULL,
  applied_at TIMESTAMP NOT NULL,
  checksum   STRING,
  applied_by STRING
)`, r.table())
	if err := r.exec(ctx, sql); err != nil {
		return fmt.Errorf("ensureSchemaMigrationsTable: %w", err)
	}
	return nil
}

func (r *runner) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	sql := fmt.Sprintf(`
SELECT version, name, applied_at, checksum, applied_by
FROM %s
ORDER BY version ASC`, r.table())

	it, err := r.client.Query(sql).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("appliedMigrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("appliedMigrations: iterating results: %w", err)
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

func (r *runner) apply(ctx context.Context, m Migration) error {
	if err := r.exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply %s: %w", m.Filename, err)
	}
	insert := fmt.Sprintf(`
INSERT INTO %s (version, name, applied_at, checksum, applied_by)
VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`, r.table())
	err := r.exec(ctx, insert,
		bigquery.QueryParameter{Name: "version", Value: m.Version},
		bigquery.QueryParameter{Name: "name", Value: m.Name},
		bigquery.QueryParameter{Name: "checksum", Value: m.Checksum},
		bigquery.QueryParameter{Name: "applied_by", Value: r.appliedBy},
	)
	if err != nil {
		return fmt.Errorf("apply %s: recording: %w", m.Filename, err)
	}
	return nil
}
