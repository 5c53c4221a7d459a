// Package pipeline ingests bank statements: decode, resolve the account,
// archive, extract text, parse, categorize and commit each transaction
// through the ledger.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/statement"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// Draft is a parsed candidate with its assigned category.
type Draft struct {
	statement.Candidate
	Category domain.Category
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	UserID string
	// Payload is the base64 document as received from the API.
	Payload string
	// GCSURI is set when the document was fetched from Cloud Storage.
	GCSURI string

	Document     []byte
	Account      *domain.Account
	ArchiveURI   string
	Text         string
	Drafts       []Draft
	Transactions []*domain.Transaction
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs the steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%T) failed: %w", i+1, step, err)
		}
	}
	return nil
}
