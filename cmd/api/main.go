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

	"github.com/dvloznov/finance-advisor/internal/api/handlers"
	"github.com/dvloznov/finance-advisor/internal/app"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/jobs"
	"github.com/dvloznov/finance-advisor/internal/jobs/inmemory"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT)")
	flag.Parse()

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application")
	}
	defer a.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.WorkerCount),
		inmemory.WithLogger(log),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		analyzeJob, ok := job.(*jobs.AnalyzeUserJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		report, err := a.Advisor.Analyze(ctx, analyzeJob.UserID)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", analyzeJob.UserID, err)
		}
		log.Info().
			Str("job_id", analyzeJob.JobID).
			Str("user_id", analyzeJob.UserID).
			Int("recommendations", len(report.Recommendations)).
			Int("insights", len(report.Insights)).
			Msg("Analysis job finished")
		return nil
	}

	log.Info().Int("workers", cfg.WorkerCount).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	h := handlers.New(a.Advisor, jobQueue, jobStore, log)
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      h.HTTPHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight analyses finish before cancelling their context.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
