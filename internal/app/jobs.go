package app

import (
	"context"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// GCSIngester ingests a statement already uploaded to Cloud Storage.
type GCSIngester interface {
	IngestFromGCS(ctx context.Context, userID, gcsURI string) ([]*domain.Transaction, error)
}

// IngestJobHandler runs queued statement jobs through ingester. Failures that
// a retry cannot fix, or that already committed transactions, are marked
// permanent so the queue does not book the statement twice.
func IngestJobHandler(ingester GCSIngester) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.IngestStatementJob) error {
		log := logger.FromContext(ctx).With().Str("user_id", job.UserID).Logger()

		txs, err := ingester.IngestFromGCS(ctx, job.UserID, job.GCSURI)
		for _, tx := range txs {
			job.TransactionIDs = append(job.TransactionIDs, tx.ID)
		}
		if err != nil {
			log.Error().Err(err).Int("committed", len(txs)).Msg("Statement ingestion failed")
			switch {
			case len(txs) > 0:
				return jobs.Permanent(err)
			case domain.KindOf(err) == domain.KindValidation, domain.KindOf(err) == domain.KindNotFound:
				return jobs.Permanent(err)
			}
			return err
		}

		log.Info().Int("transactions", len(txs)).Msg("Statement ingestion completed")
		return nil
	}
}
