package categorize

import (
	"context"
	"fmt"
	"math/rand/v2"
	"unicode/utf8"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

const (
	// MinHistory is the number of past transactions a user needs before a
	// model is trained at all.
	MinHistory = 10

	defaultEpochs       = 50
	defaultBatchSize    = 32
	defaultLearningRate = 0.001
)

var hiddenLayers = []int{8, 4}

// Sample is the transaction a category is requested for.
type Sample struct {
	UserID      string
	Amount      decimal.Decimal
	Description string
}

func (s Sample) features() []float64 {
	return features(s.Amount, s.Description)
}

func features(amount decimal.Decimal, description string) []float64 {
	return []float64{amount.InexactFloat64(), float64(utf8.RuneCountInString(description))}
}

// Predictor picks a category for a transaction that arrived without one.
type Predictor interface {
	Predict(ctx context.Context, s Sample) (domain.Category, error)
}

// HistorySource supplies a user's past transactions as training data.
type HistorySource interface {
	TransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
}

// Learned trains a fresh classifier on the user's history for every
// prediction and throws it away afterwards.
type Learned struct {
	history HistorySource
	epochs  int
	seed    *uint64

	newClassifier func(classes int, rng *rand.Rand, epochs int) classifier
}

// LearnedOption configures a Learned categorizer.
type LearnedOption func(*Learned)

// WithSeed makes weight initialisation and shuffling deterministic.
func WithSeed(seed uint64) LearnedOption {
	return func(l *Learned) { l.seed = &seed }
}

// WithEpochs overrides the number of training epochs.
func WithEpochs(epochs int) LearnedOption {
	return func(l *Learned) { l.epochs = epochs }
}

// NewLearned returns a Learned categorizer reading history from src.
func NewLearned(src HistorySource, opts ...LearnedOption) *Learned {
	l := &Learned{
		history: src,
		epochs:  defaultEpochs,
		newClassifier: func(classes int, rng *rand.Rand, epochs int) classifier {
			n := newNetwork(2, hiddenLayers, classes, rng)
			n.epochs = epochs
			return n
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Predict implements Predictor.
func (l *Learned) Predict(ctx context.Context, s Sample) (domain.Category, error) {
	log := logger.FromContext(ctx).With().Str("user_id", s.UserID).Logger()

	history, err := l.history.TransactionsByUser(ctx, s.UserID)
	if err != nil {
		return "", fmt.Errorf("Learned.Predict: load history: %w", err)
	}
	if len(history) < MinHistory {
		log.Debug().Int("history", len(history)).Msg("Not enough history to train, using default category")
		return domain.CategoryOthers, nil
	}

	categories, index := categoryIndex(history)
	x := mat.NewDense(len(history), 2, nil)
	labels := make([]int, len(history))
	for i, tx := range history {
		x.SetRow(i, features(tx.Amount, tx.Description))
		labels[i] = index[tx.Category]
	}

	model := l.newClassifier(len(categories), l.rng(), l.epochs)
	if err := model.fit(ctx, x, labels); err != nil {
		return "", fmt.Errorf("Learned.Predict: train: %w", err)
	}

	idx := model.predict(s.features())
	if idx < 0 || idx >= len(categories) {
		return domain.CategoryOthers, nil
	}

	log.Debug().
		Int("history", len(history)).
		Int("classes", len(categories)).
		Str("category", string(categories[idx])).
		Msg("Predicted category")
	return categories[idx], nil
}

func (l *Learned) rng() *rand.Rand {
	if l.seed != nil {
		return rand.New(rand.NewPCG(*l.seed, *l.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// categoryIndex lists the distinct categories of history in first-seen order
// and maps each to its position.
func categoryIndex(history []*domain.Transaction) ([]domain.Category, map[domain.Category]int) {
	var categories []domain.Category
	index := make(map[domain.Category]int)
	for _, tx := range history {
		if _, ok := index[tx.Category]; ok {
			continue
		}
		index[tx.Category] = len(categories)
		categories = append(categories, tx.Category)
	}
	return categories, index
}
