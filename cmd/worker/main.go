package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/advisor"
	"github.com/dvloznov/finance-advisor/internal/app"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/jobs"
	"github.com/dvloznov/finance-advisor/internal/jobs/inmemory"
	"github.com/dvloznov/finance-advisor/internal/logger"
)

// The worker runs analysis for a fixed set of users through the job queue,
// once or on an interval, so insights are fresh without API traffic.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	users := flag.String("users", "", "Comma-separated user IDs to analyze (required)")
	interval := flag.Duration("interval", 0, "Repeat every interval; 0 runs once and exits")
	flag.Parse()

	log := logger.NewWithLevel(cfg.LogLevel)

	userIDs := splitUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("Usage: worker -users u1,u2 [-interval 1h]")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

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
	if err := jobQueue.Start(ctx, analyzeHandler(a.Advisor, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("users", len(userIDs)).Dur("interval", *interval).Msg("Worker started")

	for {
		completed, failed, err := runBatch(ctx, jobQueue, jobStore, userIDs)
		if err != nil {
			log.Error().Err(err).Msg("Batch interrupted")
		} else {
			log.Info().Int("completed", completed).Int("failed", failed).Msg("Batch finished")
		}

		if *interval <= 0 || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(*interval):
		}
		if ctx.Err() != nil {
			break
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	log.Info().Msg("Worker exited")
}

func splitUsers(s string) []string {
	var out []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func analyzeHandler(svc *advisor.Service, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		analyzeJob, ok := job.(*jobs.AnalyzeUserJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		report, err := svc.Analyze(ctx, analyzeJob.UserID)
		if err != nil {
			return err
		}
		log.Info().
			Str("user_id", analyzeJob.UserID).
			Int("recommendations", len(report.Recommendations)).
			Int("insights", len(report.Insights)).
			Msg("User analyzed")
		return nil
	}
}

// runBatch publishes one job per user and waits until all of them are
// completed or failed.
func runBatch(ctx context.Context, pub jobs.Publisher, store jobs.JobStore, userIDs []string) (completed, failed int, err error) {
	ids := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		job := &jobs.AnalyzeUserJob{UserID: userID}
		if err := pub.PublishAnalyzeUser(ctx, job); err != nil {
			return 0, 0, fmt.Errorf("publish %s: %w", userID, err)
		}
		ids = append(ids, job.JobID)
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		completed, failed = 0, 0
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				return 0, 0, err
			}
			switch job.Status {
			case jobs.JobStatusCompleted:
				completed++
			case jobs.JobStatusFailed:
				failed++
			}
		}
		if completed+failed == len(ids) {
			return completed, failed, nil
		}

		select {
		case <-ctx.Done():
			return completed, failed, ctx.Err()
		case <-ticker.C:
		}
	}
}
