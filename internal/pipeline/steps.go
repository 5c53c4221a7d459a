package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/categorize"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/extractor"
	"github.com/dvloznov/finance-ledger/internal/gcsuploader"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/statement"
)

// Step 1: DecodePayloadStep turns the base64 payload into document bytes.
// Documents already fetched from Cloud Storage pass through.
type DecodePayloadStep struct{}

func (s *DecodePayloadStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Document != nil {
		return nil
	}
	payload := strings.TrimSpace(state.Payload)
	if payload == "" {
		return domain.Validationf("DecodePayload", "document payload is empty")
	}
	// Tolerate data URLs such as "data:application/pdf;base64,...".
	if i := strings.Index(payload, ";base64,"); i != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+len(";base64,"):]
	}

	doc, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		doc, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return domain.E(domain.KindValidation, "DecodePayload", fmt.Errorf("invalid base64 document: %w", err))
	}
	if len(doc) == 0 {
		return domain.Validationf("DecodePayload", "document payload is empty")
	}
	state.Document = doc
	return nil
}

// Step 2: ResolveAccountStep looks up the caller's account.
type ResolveAccountStep struct {
	Accounts AccountResolver
}

func (s *ResolveAccountStep) Execute(ctx context.Context, state *PipelineState) error {
	acct, err := s.Accounts.AccountByUser(ctx, state.UserID)
	if err != nil {
		return fmt.Errorf("ResolveAccount: %w", err)
	}
	state.Account = acct
	return nil
}

// Step 3: ArchiveDocumentStep keeps a copy of the uploaded document in Cloud
// Storage. It is skipped without a bucket or when the document came from
// Cloud Storage already, and its failures never abort ingestion.
type ArchiveDocumentStep struct {
	Storage StorageService
	Bucket  string
	Now     func() time.Time
}

func (s *ArchiveDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.GCSURI != "" {
		state.ArchiveURI = state.GCSURI
		return nil
	}
	if s.Storage == nil || s.Bucket == "" {
		return nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ext, contentType := ".txt", "text/plain; charset=utf-8"
	if extractor.IsPDF(state.Document) {
		ext, contentType = ".pdf", "application/pdf"
	}
	object := gcsuploader.StatementObjectName(state.UserID, now(), ext)

	log := logger.FromContext(ctx)
	if err := s.Storage.Put(ctx, s.Bucket, object, contentType, state.Document); err != nil {
		log.Warn().Err(err).Str("bucket", s.Bucket).Str("object", object).Msg("Failed to archive statement, continuing")
		return nil
	}
	state.ArchiveURI = gcsuploader.URI(s.Bucket, object)
	log.Info().Str("archive_uri", state.ArchiveURI).Msg("Archived statement")
	return nil
}

// Step 4: ExtractTextStep turns the document into plain text.
type ExtractTextStep struct {
	Extractor extractor.Extractor
}

func (s *ExtractTextStep) Execute(ctx context.Context, state *PipelineState) error {
	text, err := s.Extractor.Extract(ctx, state.Document)
	if err != nil {
		return domain.Ingestion("ExtractText", err)
	}
	state.Text = text
	return nil
}

// Step 5: ParseStatementStep scans the text for candidates and assigns each a
// keyword category.
type ParseStatementStep struct{}

func (s *ParseStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	scanner := statement.NewScanner(strings.NewReader(state.Text), state.UserID, state.Account.ID)
	for c := range scanner.Candidates() {
		state.Drafts = append(state.Drafts, Draft{Candidate: c, Category: categorize.Heuristic(c.Description)})
	}
	if err := scanner.Err(); err != nil {
		return domain.Ingestion("ParseStatement", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Int("candidates", len(state.Drafts)).Msg("Parsed statement")
	return nil
}

// Step 6: CommitTransactionsStep records drafts one at a time in source
// order. The first failure stops the step; earlier commits are kept and stay
// in state.Transactions.
type CommitTransactionsStep struct {
	Recorder Recorder
}

func (s *CommitTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	for _, d := range state.Drafts {
		tx, err := s.Recorder.Record(ctx, ledger.Intent{
			Amount:      d.Amount,
			Type:        d.Type,
			Category:    d.Category,
			Description: d.Description,
			Date:        d.Date,
			AccountID:   d.AccountID,
			UserID:      d.UserID,
		})
		if err != nil {
			log.Error().Err(err).
				Int("line", d.Line).
				Int("committed", len(state.Transactions)).
				Msg("Failed to commit statement transaction")
			return domain.Ingestion("CommitTransactions", fmt.Errorf("line %d: %w", d.Line, err))
		}
		state.Transactions = append(state.Transactions, tx)
	}
	return nil
}
