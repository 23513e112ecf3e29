package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/okian/starsync/internal/adapters/destination"
	"github.com/okian/starsync/internal/adapters/source"
	app "github.com/okian/starsync/internal/app"
	"github.com/okian/starsync/internal/config"
	"github.com/okian/starsync/pkg/logger"
	"github.com/okian/starsync/pkg/metrics"
)

// flushTimeout bounds the metrics export after the run, even when the run
// itself was cancelled.
const flushTimeout = 10 * time.Second

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx)
	stop()
	os.Exit(code)
}

// execute loads configuration, runs one sync and returns the process exit code.
func execute(ctx context.Context) int {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
		_ = logger.Close()
	}()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "sync aborted", logger.Error(err))
		return 1
	}
	return 0
}

// run wires the clients and the driver from cfg and performs one pass. The
// returned error is fatal; per-entity failures only show in the logs and metrics.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) (err error) {
	runID := uuid.NewString()

	metricOpts := []metrics.Option{metrics.WithGroupingLabel("run_id", runID)}
	if cfg.MetricsPushgatewayURL != "" {
		metricOpts = append(metricOpts, metrics.WithPushgateway(cfg.MetricsPushgatewayURL, cfg.MetricsJob))
	}
	if cfg.MetricsTextfile != "" {
		metricOpts = append(metricOpts, metrics.WithTextfile(cfg.MetricsTextfile))
	}
	m := metrics.Init(metricOpts...)

	started := time.Now()
	defer func() {
		finished := time.Now()
		m.RecordRun(finished.Sub(started), finished, err == nil)

		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		if ferr := m.Flush(flushCtx); ferr != nil {
			log.Warn(ctx, "failed to export metrics", logger.Error(ferr))
		}
	}()

	src := source.New(cfg.BaseURL, cfg.PictureURLTemplate,
		source.WithTimeout(cfg.HTTPTimeout()),
		source.WithRateLimit(cfg.SourceRateLimitRPS, cfg.SourceRateBurst),
		source.WithFetchWorkers(cfg.FetchWorkers),
		source.WithLogger(log.Named("source")),
	)

	dst, err := destination.Dial(ctx, destination.Config{
		URL:          cfg.DestinationURL,
		Database:     cfg.Database,
		Username:     cfg.Username,
		Password:     cfg.Password,
		PlanetModel:  cfg.PlanetModel,
		ContactModel: cfg.ContactModel,
		ImageField:   cfg.ImageField,
		PlanetField:  cfg.PlanetField,
	}, destination.WithLogger(log.Named("destination")))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			log.Debug(ctx, "failed to close destination", logger.Error(cerr))
		}
	}()

	svc := app.New(src, dst, app.WithLogger(log.Named("sync")), app.WithRunID(runID))
	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	log.Info(ctx, "sync complete",
		logger.String("run_id", report.RunID),
		logger.Any("stats", report.Stats()),
		logger.Int("failed", report.Failed()),
	)
	return nil
}
