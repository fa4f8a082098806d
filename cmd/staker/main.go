package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/jupstaker/cmd/staker/config"
	"github.com/screwyprof/jupstaker/pkg/logger"
	"github.com/screwyprof/jupstaker/pkg/pgxdb"
	"github.com/screwyprof/jupstaker/pkg/solanarpc"
	"github.com/screwyprof/jupstaker/staker"
	jobconfig "github.com/screwyprof/jupstaker/staker/config"
	"github.com/screwyprof/jupstaker/staker/store/pgxstore"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

// errBatchFailed is returned when at least one account could not be staked
var errBatchFailed = errors.New("some accounts failed")

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting JUP staker",
		slog.String("configPath", cfg.ConfigPath),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.ErrorContext(ctx, "Staking batch failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.InfoContext(ctx, "Staking batch completed")
}

// run loads the job, stakes every account and writes the report to out
func run(ctx context.Context, cfg config.Config, log *slog.Logger, out io.Writer) error {
	// Everything that can fail locally fails before the first RPC call
	job, err := jobconfig.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "Loaded accounts",
		slog.Int("accounts", len(job.Accounts)),
		slog.Bool("feePayer", len(job.FeePayer) > 0),
	)

	// HTTP client & RPC client
	httpClient := &http.Client{
		Timeout:   cfg.HttpClientTimeout,
		Transport: logger.NewTransport(log, http.DefaultTransport),
	}
	ledger := solanarpc.NewClient(httpClient, job.RPCURL)

	opts := []staker.Option{
		staker.WithPacing(cfg.PacingDelay),
		staker.WithStartupDelay(cfg.StartupDelay),
	}
	if len(job.FeePayer) > 0 {
		opts = append(opts, staker.WithFeePayer(job.FeePayer))
	}

	// Optional journal
	if cfg.DatabaseURL != "" {
		journal, closer, err := openJournal(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closer()
		opts = append(opts, staker.WithJournal(journal))
	}

	service := staker.NewService(ledger, job.Network, job.Policy, opts...)

	events, done := service.Start(ctx, job.Accounts)

	var report staker.Report
	subCloser := setupEventLogging(ctx, events, log, func(r staker.Report) { report = r })

	<-done
	subCloser()

	report.WriteTable(out)

	if n := len(report.Failed()); n > 0 {
		return fmt.Errorf("%w: %d of %d", errBatchFailed, n, report.Total)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// openJournal connects to Postgres, applies migrations and returns the outcome store
func openJournal(ctx context.Context, cfg config.Config, log *slog.Logger) (staker.Journal, func(), error) {
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	log.InfoContext(ctx, "Applying database migrations", slog.String("migrationsDir", cfg.MigrationsDir))
	if _, err := pgxdb.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
		db.Close()
		return nil, nil, err
	}

	store, closer := pgxstore.New(db)
	return store, closer, nil
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan staker.Event, log *slog.Logger, onDone func(staker.Report)) func() {
	return staker.NewSubscriber(events,
		staker.OnBatchStarted(func(event staker.BatchStarted) {
			log.InfoContext(ctx, "Batch started",
				slog.String("batchID", event.BatchID.String()),
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
				slog.Int("accounts", event.Accounts),
			)
		}),
		staker.OnAccountStarted(func(event staker.AccountStarted) {
			log.InfoContext(ctx, "Processing account",
				slog.Int("index", event.Index+1),
				slog.String("owner", event.Owner.String()),
			)
		}),
		staker.OnStakeSubmitted(func(event staker.StakeSubmitted) {
			log.InfoContext(ctx, "Stake submitted",
				slog.String("owner", event.Outcome.Owner.String()),
				slog.Uint64("amount", event.Outcome.Amount),
				slog.String("signature", event.Outcome.Signature.String()),
			)
		}),
		staker.OnStakeFailed(func(event staker.StakeFailed) {
			log.ErrorContext(ctx, "Stake failed",
				slog.String("owner", event.Outcome.Owner.String()),
				slog.String("stage", event.Outcome.FailedAt.String()),
				slog.Any("error", event.Outcome.Err),
			)
		}),
		staker.OnJournalError(func(event staker.JournalError) {
			log.WarnContext(ctx, "Failed to journal outcome",
				slog.String("owner", event.Owner.String()),
				slog.Any("error", event.Err),
			)
		}),
		staker.OnBatchDone(func(event staker.BatchDone) {
			log.InfoContext(ctx, "Batch done",
				slog.Int("succeeded", len(event.Report.Succeeded())),
				slog.Int("failed", len(event.Report.Failed())),
				slog.Int("skipped", event.Report.Skipped()),
				slog.Duration("duration", event.Report.Duration),
			)
			onDone(event.Report)
		}),
	)
}
