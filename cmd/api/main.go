// Command api serves the ledger over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/handlers"
	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/dvloznov/finance-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("LEDGER_CONFIG"), "Path to YAML config file (or set LEDGER_CONFIG)")
		addr       = flag.String("addr", "", "Listen address, overrides http.addr")
		driver     = flag.String("store", "", "Store driver (memory|bigquery), overrides store.driver")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *driver != "" {
		cfg.Store.Driver = *driver
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	log, err := logger.WithLevel(logger.New(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	h := handlers.Handlers{
		Accounts:     handlers.NewAccountsHandler(a.Service),
		Transactions: handlers.NewTransactionsHandler(a.Service),
		Goals:        handlers.NewGoalsHandler(a.Goals),
	}

	// Async ingestion reads statements back from the bucket, so it needs one.
	var queue *inmemory.Queue
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if a.Storage != nil {
		jobStore := inmemory.NewStore()
		queue = inmemory.NewQueue(cfg.Jobs.BufferSize, jobStore, inmemory.WithWorkers(cfg.Jobs.Workers))

		log.Info().Int("workers", cfg.Jobs.Workers).Msg("Starting job workers")
		if err := queue.Start(workerCtx, app.IngestJobHandler(a.Orchestrator)); err != nil {
			log.Fatal().Err(err).Msg("Failed to start job workers")
		}

		h.Statements = handlers.NewStatementsHandler(a.Orchestrator, queue, cfg.Storage.Bucket)
		h.Jobs = handlers.NewJobsHandler(jobStore)
	} else {
		var noPublisher jobs.Publisher
		h.Statements = handlers.NewStatementsHandler(a.Orchestrator, noPublisher, "")
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      middleware.Chain(log, handlers.NewRouter(h)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Driver).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if queue != nil {
		cancelWorker()
		if err := queue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
		if err := queue.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close job queue")
		}
	}

	log.Info().Msg("Server exited")
}
