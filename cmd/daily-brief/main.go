package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"

	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/logging"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run the selected job once and exit")
	job := flag.String("job", jobBrief, "job to run with -once: brief or rates")
	serve := flag.Bool("serve", false, "serve the dashboard")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	banner.PrintSimple("Daily Brief", version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
		os.Exit(1)
	}

	// Single-run mode: run the job once and exit
	if *once {
		logger.Info().Str("job", *job).Msg("Running once")
		err := a.runJob(ctx, *job)
		a.close(5 * time.Second)
		if err != nil {
			logger.Error().Err(err).Str("job", *job).Msg("Job failed")
			os.Exit(1)
		}
		logger.Info().Msg("Done")
		return
	}

	if *serve {
		if err := a.web.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start dashboard")
			os.Exit(1)
		}
	}

	if cfg.RunOnStart {
		logger.Info().Msg("Running initial daily brief")
		if err := a.runJob(ctx, jobBrief); err != nil {
			logger.Error().Err(err).Msg("Initial run failed")
		}
	}

	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if err := schedule(ctx, c, a, cfg.Schedule, jobBrief); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("Failed to set up brief schedule")
		os.Exit(1)
	}
	if cfg.Rates.Enabled {
		if err := schedule(ctx, c, a, cfg.Rates.Schedule, jobRates); err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.Rates.Schedule).Msg("Failed to set up rates schedule")
			os.Exit(1)
		}
	}
	c.Start()
	logger.Info().
		Str("schedule", cfg.Schedule).
		Str("timezone", cfg.Timezone).
		Bool("rates", cfg.Rates.Enabled).
		Bool("dashboard", *serve).
		Msg("Scheduler started")

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	// Wait for a running job to observe cancellation.
	<-c.Stop().Done()
	a.close(5 * time.Second)

	logger.Info().Msg("Shutdown complete")
}

func schedule(ctx context.Context, c *cron.Cron, a *app, spec, job string) error {
	_, err := c.AddFunc(spec, func() {
		a.logger.Info().Str("job", job).Msg("Cron triggered")
		if err := a.runJob(ctx, job); err != nil {
			a.logger.Error().Err(err).Str("job", job).Msg("Scheduled run failed")
		}
	})
	return err
}
