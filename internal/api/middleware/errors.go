package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

// StatusFor maps an error to an HTTP status and the message shown to the
// caller. Ingestion and unclassified failures get a generic message.
func StatusFor(err error) (int, string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch de.Kind {
	case domain.KindNotFound:
		return http.StatusNotFound, de.Error()
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity, de.Error()
	case domain.KindValidation:
		return http.StatusBadRequest, de.Error()
	case domain.KindConflict:
		return http.StatusConflict, de.Error()
	case domain.KindIngestion:
		return http.StatusUnprocessableEntity, "Statement could not be processed"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// WriteDomainError logs err and writes the response StatusFor selects.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := StatusFor(err)

	log := logger.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}

	WriteError(w, status, message)
}
