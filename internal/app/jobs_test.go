package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockGCSIngester struct {
	IngestFromGCSFunc func(ctx context.Context, userID, gcsURI string) ([]*domain.Transaction, error)
}

func (m *MockGCSIngester) IngestFromGCS(ctx context.Context, userID, gcsURI string) ([]*domain.Transaction, error) {
	return m.IngestFromGCSFunc(ctx, userID, gcsURI)
}

func TestIngestJobHandler(t *testing.T) {
	tests := []struct {
		name      string
		txs       []*domain.Transaction
		err       error
		wantErr   bool
		permanent bool
		wantIDs   []string
	}{
		{
			name:    "success",
			txs:     []*domain.Transaction{{ID: "tx-1"}, {ID: "tx-2"}},
			wantIDs: []string{"tx-1", "tx-2"},
		},
		{
			name:    "transient failure is retried",
			err:     domain.Ingestion("IngestFromGCS", errors.New("gcs timeout")),
			wantErr: true,
		},
		{
			name:      "partial commit is permanent",
			txs:       []*domain.Transaction{{ID: "tx-1"}},
			err:       domain.Ingestion("CommitTransactions", errors.New("boom")),
			wantErr:   true,
			permanent: true,
			wantIDs:   []string{"tx-1"},
		},
		{
			name:      "missing account is permanent",
			err:       domain.NotFoundf("ResolveAccount", "no account"),
			wantErr:   true,
			permanent: true,
		},
		{
			name:      "bad input is permanent",
			err:       domain.Validationf("IngestFromGCS", "cloud storage is not configured"),
			wantErr:   true,
			permanent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingester := &MockGCSIngester{
				IngestFromGCSFunc: func(_ context.Context, userID, gcsURI string) ([]*domain.Transaction, error) {
					assert.Equal(t, "user-1", userID)
					assert.Equal(t, "gs://bucket/statement.pdf", gcsURI)
					return tt.txs, tt.err
				},
			}
			job := &jobs.IngestStatementJob{JobID: "job-1", UserID: "user-1", GCSURI: "gs://bucket/statement.pdf"}

			err := IngestJobHandler(ingester)(context.Background(), job)

			if !tt.wantErr {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.permanent, jobs.IsPermanent(err))
			}
			assert.Equal(t, tt.wantIDs, job.TransactionIDs)
		})
	}
}
