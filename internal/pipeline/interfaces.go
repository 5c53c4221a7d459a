package pipeline

import (
	"context"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
)

// Recorder commits a single transaction with its balance effect.
type Recorder interface {
	Record(ctx context.Context, in ledger.Intent) (*domain.Transaction, error)
}

// AccountResolver finds the account statements are booked against.
type AccountResolver interface {
	AccountByUser(ctx context.Context, userID string) (*domain.Account, error)
}

// StorageService is the Cloud Storage surface ingestion needs.
type StorageService interface {
	Put(ctx context.Context, bucket, object, contentType string, data []byte) error
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}
