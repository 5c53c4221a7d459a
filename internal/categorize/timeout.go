package categorize

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

type timeoutPredictor struct {
	next    Predictor
	timeout time.Duration
}

// WithTimeout bounds next by d. When the deadline passes first the result is
// OTHERS and no error. A non-positive d disables the bound.
func WithTimeout(next Predictor, d time.Duration) Predictor {
	if d <= 0 {
		return next
	}
	return &timeoutPredictor{next: next, timeout: d}
}

type prediction struct {
	category domain.Category
	err      error
}

func (t *timeoutPredictor) Predict(ctx context.Context, s Sample) (domain.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan prediction, 1)
	go func() {
		c, err := t.next.Predict(ctx, s)
		done <- prediction{c, err}
	}()

	select {
	case p := <-done:
		if p.err != nil && errors.Is(p.err, context.DeadlineExceeded) {
			return t.fallback(ctx, s)
		}
		return p.category, p.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return t.fallback(ctx, s)
		}
		return "", ctx.Err()
	}
}

func (t *timeoutPredictor) fallback(ctx context.Context, s Sample) (domain.Category, error) {
	log := logger.FromContext(ctx)
	log.Warn().
		Str("user_id", s.UserID).
		Dur("timeout", t.timeout).
		Msg("Category prediction timed out, using default category")
	return domain.CategoryOthers, nil
}
