package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/gcsuploader"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// StatementsHandler ingests bank statements, either inline or as a job.
type StatementsHandler struct {
	ingester  StatementIngester
	publisher jobs.Publisher
	bucket    string
}

// NewStatementsHandler creates a statements handler. publisher may be nil,
// which disables job ingestion. When bucket is set, jobs may only read from
// it.
func NewStatementsHandler(ingester StatementIngester, publisher jobs.Publisher, bucket string) *StatementsHandler {
	return &StatementsHandler{ingester: ingester, publisher: publisher, bucket: bucket}
}

// IngestStatement handles POST /api/statements. It responds with the created
// transactions in statement order. When ingestion stops part way, the
// transactions committed before the failure are listed next to the error.
func (h *StatementsHandler) IngestStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document string `json:"document"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	txs, err := h.ingester.Ingest(r.Context(), userID(r), req.Document)
	if err != nil {
		if len(txs) == 0 {
			middleware.WriteDomainError(r.Context(), w, err)
			return
		}
		status, message := middleware.StatusFor(err)
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Int("committed", len(txs)).Msg("Statement partially ingested")
		middleware.WriteJSON(w, status, map[string]interface{}{
			"error":        message,
			"transactions": txs,
		})
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, emptyIfNil(txs))
}

// EnqueueIngestion handles POST /api/statements/jobs
func (h *StatementsHandler) EnqueueIngestion(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Statement jobs are not configured")
		return
	}

	var req struct {
		GCSURI string `json:"gcs_uri"`
	}
	if err := decode(w, r, &req); err != nil {
		middleware.WriteDomainError(r.Context(), w, err)
		return
	}

	uri := strings.TrimSpace(req.GCSURI)
	bucket, _, err := gcsuploader.ParseURI(uri)
	if err != nil {
		middleware.WriteDomainError(r.Context(), w, domain.E(domain.KindValidation, "EnqueueIngestion", err))
		return
	}
	if h.bucket != "" && bucket != h.bucket {
		middleware.WriteDomainError(r.Context(), w, domain.Validationf("EnqueueIngestion", "gcs_uri must be in bucket %s", h.bucket))
		return
	}

	job := &jobs.IngestStatementJob{UserID: userID(r), GCSURI: uri}
	if err := h.publisher.PublishIngestStatement(r.Context(), job); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().Str("job_id", job.JobID).Str("gcs_uri", uri).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.JobID,
		"gcs_uri":  uri,
		"filename": gcsuploader.ExtractFilenameFromGCSURI(uri),
		"status":   string(job.Status),
	})
}
