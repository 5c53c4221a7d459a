// Package app wires the ledger services from a Config. Both the API server
// and the CLI build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/finance-ledger/internal/categorize"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/extractor"
	"github.com/dvloznov/finance-ledger/internal/gcsuploader"
	"github.com/dvloznov/finance-ledger/internal/goals"
	infraBQ "github.com/dvloznov/finance-ledger/internal/infra/bigquery"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/pipeline"
	"github.com/dvloznov/finance-ledger/internal/store"
	"github.com/dvloznov/finance-ledger/internal/store/inmemory"
)

// App holds the wired services. Storage is nil when no bucket is configured.
type App struct {
	Config       config.Config
	Store        store.Store
	Ledger       *ledger.Engine
	Service      *ledger.Service
	Goals        *goals.Engine
	Orchestrator *pipeline.Orchestrator
	Extractor    extractor.Extractor
	Storage      *gcsuploader.Client

	closers []io.Closer
}

// Build constructs every service for cfg. The caller must Close the App.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.Store = s
	if c, ok := s.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	chain := extractor.Chain{extractor.PDFExtractor{}}
	if cfg.Extractor.GeminiModel != "" {
		gemini, err := extractor.NewGeminiExtractor(ctx, cfg.Extractor.GeminiModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		chain = append(chain, gemini)
		log.Info().Str("model", cfg.Extractor.GeminiModel).Msg("Gemini extraction enabled")
	}

	a.Extractor = chain
	deps := pipeline.Deps{Extractor: chain}
	if cfg.Storage.Bucket != "" {
		client, err := gcsuploader.NewClient(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		a.Storage = client
		a.closers = append(a.closers, client)
		deps.Storage = client
		deps.ArchiveBucket = cfg.Storage.Bucket
	} else {
		log.Warn().Msg("No GCS bucket configured - statement archiving and async ingestion are disabled")
	}

	learnedOpts := []categorize.LearnedOption{categorize.WithEpochs(cfg.Categorizer.Epochs)}
	if cfg.Categorizer.Seed != 0 {
		learnedOpts = append(learnedOpts, categorize.WithSeed(uint64(cfg.Categorizer.Seed)))
	}
	predictor := categorize.WithTimeout(categorize.NewLearned(s, learnedOpts...), cfg.Categorizer.Timeout)

	a.Ledger = ledger.NewEngine(s)
	a.Service = ledger.NewService(a.Ledger, s, predictor)
	a.Goals = goals.NewEngine(s, a.Ledger)

	deps.Accounts = s
	deps.Recorder = a.Ledger
	a.Orchestrator = pipeline.NewOrchestrator(deps)

	log.Info().Str("driver", cfg.Store.Driver).Msg("Services initialized")
	return a, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return inmemory.NewStore(), nil
	case config.DriverBigQuery:
		s, err := infraBQ.NewStore(ctx, infraBQ.Dataset{ProjectID: cfg.ProjectID, DatasetID: cfg.Dataset})
		if err != nil {
			return nil, fmt.Errorf("openStore: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("openStore: unknown driver %q", cfg.Driver)
	}
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
