package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/extractor"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// Deps are the collaborators of an Orchestrator. Storage and ArchiveBucket
// are optional.
type Deps struct {
	Accounts      AccountResolver
	Recorder      Recorder
	Extractor     extractor.Extractor
	Storage       StorageService
	ArchiveBucket string
}

// Orchestrator runs the statement ingestion pipeline.
type Orchestrator struct {
	pipeline *Pipeline
	storage  StorageService
}

// NewOrchestrator builds the standard six-step ingestion pipeline.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		pipeline: NewPipeline(
			&DecodePayloadStep{},
			&ResolveAccountStep{Accounts: deps.Accounts},
			&ArchiveDocumentStep{Storage: deps.Storage, Bucket: deps.ArchiveBucket},
			&ExtractTextStep{Extractor: deps.Extractor},
			&ParseStatementStep{},
			&CommitTransactionsStep{Recorder: deps.Recorder},
		),
		storage: deps.Storage,
	}
}

// Ingest parses a base64 encoded statement and commits its transactions to
// the user's account. The created transactions are returned in statement
// order. On failure the returned slice holds whatever was committed before
// the error.
func (o *Orchestrator) Ingest(ctx context.Context, userID, payload string) ([]*domain.Transaction, error) {
	return o.run(ctx, &PipelineState{UserID: userID, Payload: payload})
}

// IngestFromGCS is Ingest for a document already stored at gcsURI.
func (o *Orchestrator) IngestFromGCS(ctx context.Context, userID, gcsURI string) ([]*domain.Transaction, error) {
	if o.storage == nil {
		return nil, domain.Validationf("IngestFromGCS", "cloud storage is not configured")
	}
	doc, err := o.storage.FetchFromGCS(ctx, gcsURI)
	if err != nil {
		return nil, domain.Ingestion("IngestFromGCS", err)
	}
	return o.run(ctx, &PipelineState{UserID: userID, GCSURI: gcsURI, Document: doc})
}

func (o *Orchestrator) run(ctx context.Context, state *PipelineState) ([]*domain.Transaction, error) {
	log := logger.FromContext(ctx).With().Str("user_id", state.UserID).Logger()
	ctx = logger.WithContext(ctx, log)

	if err := o.pipeline.Execute(ctx, state); err != nil {
		log.Error().Err(err).Int("committed", len(state.Transactions)).Msg("Statement ingestion failed")
		return state.Transactions, fmt.Errorf("Ingest: %w", err)
	}

	log.Info().
		Int("transactions", len(state.Transactions)).
		Str("archive_uri", state.ArchiveURI).
		Msg("Statement ingested")
	return state.Transactions, nil
}
