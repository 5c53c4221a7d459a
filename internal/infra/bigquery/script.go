package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

// DefaultDatasetID is the dataset the migrations create.
const DefaultDatasetID = "finance"

const (
	accountsTable     = "accounts"
	goalsTable        = "goals"
	transactionsTable = "transactions"
)

// Scripts raise errors whose message starts with one of these markers so
// the caller can map them back to domain kinds.
const (
	notFoundMarker = "ledger:not_found"
	conflictMarker = "ledger:conflict"
)

// Dataset locates the tables.
type Dataset struct {
	ProjectID string
	DatasetID string
}

func (d Dataset) table(name string) string {
	dataset := d.DatasetID
	if dataset == "" {
		dataset = DefaultDatasetID
	}
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, dataset, name)
}

// atomically wraps body in a multi-statement transaction that is rolled
// back and re-raised on any error.
func atomically(body string) string {
	return `
BEGIN
  BEGIN TRANSACTION;
` + body + `
  COMMIT TRANSACTION;
EXCEPTION WHEN ERROR THEN
  ROLLBACK TRANSACTION;
  RAISE USING MESSAGE = @@error.message;
END;`
}

// raiseIfNoRows fails the script when the previous DML statement touched
// nothing.
func raiseIfNoRows(marker, message string) string {
	return fmt.Sprintf(`
  IF @@row_count = 0 THEN
    RAISE USING MESSAGE = '%s %s';
  END IF;`, marker, message)
}

func runQuery(ctx context.Context, q *bigquery.Query) error {
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

func readRows[T any](ctx context.Context, q *bigquery.Query) ([]*T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var rows []*T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// classify maps a failed script back to a domain error. Aborted concurrent
// transactions count as conflicts.
func classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, notFoundMarker):
		return domain.E(domain.KindNotFound, op, err)
	case strings.Contains(msg, conflictMarker),
		strings.Contains(msg, "concurrent update"):
		return domain.E(domain.KindConflict, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
