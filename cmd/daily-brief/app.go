package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/extractor"
	"github.com/ryosukesatoh/daily-brief/internal/publisher"
	"github.com/ryosukesatoh/daily-brief/internal/rates"
	"github.com/ryosukesatoh/daily-brief/internal/runner"
	"github.com/ryosukesatoh/daily-brief/internal/source"
	"github.com/ryosukesatoh/daily-brief/internal/store"
	"github.com/ryosukesatoh/daily-brief/internal/summarizer"
	"github.com/ryosukesatoh/daily-brief/internal/web"
)

const (
	jobBrief = "brief"
	jobRates = "rates"
)

// app holds the wired components of one process.
type app struct {
	cfg     *config.Config
	logger  arbor.ILogger
	store   store.Store
	runner  *runner.Runner
	updater *rates.Updater
	web     *web.Server
}

func newApp(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*app, error) {
	st, err := store.New(ctx, cfg.Store, cfg.Location(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	sum, err := summarizer.New(ctx, cfg.Summarizer, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to build summarizer: %w", err)
	}

	notifier, err := publisher.New(cfg.Notifier, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to build notifier: %w", err)
	}

	r := runner.New(runner.Deps{
		Source:     source.NewGoogleSource(cfg.Search, logger),
		Extractor:  extractor.New(cfg.Extractor, logger),
		Summarizer: sum,
		Store:      st,
		Notifier:   notifier,
		Logger:     logger,
	}, runner.Options{
		Keyword:             cfg.Search.Keyword,
		Sites:               cfg.Search.Sites,
		DocumentConcurrency: cfg.Runner.DocumentConcurrency,
		Location:            cfg.Location(),
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		runner:  r,
		updater: rates.NewUpdater(rates.NewEximClient(cfg.Rates, logger), st, cfg.Location(), logger),
		web:     web.NewServer(cfg.Web.Addr, st, notifier, logger),
	}, nil
}

// runJob runs the named job once.
func (a *app) runJob(ctx context.Context, job string) error {
	switch job {
	case jobBrief:
		rep, err := a.runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("daily brief: %w", err)
		}
		a.logger.Info().
			Str("run_id", rep.RunID).
			Str("state", string(rep.State)).
			Int("candidates", rep.Candidates).
			Int("processed", len(rep.Processed)).
			Int("failed", len(rep.Failed)).
			Int("emails", rep.EmailsSent).
			Int("alerts", rep.AlertsSent).
			Dur("duration", rep.Duration).
			Msg("Daily brief finished")
		return nil
	case jobRates:
		outcome, err := a.updater.Update(ctx)
		if err != nil {
			return fmt.Errorf("exchange rates: %w", err)
		}
		a.logger.Info().Str("outcome", string(outcome)).Msg("Exchange rate update finished")
		return nil
	default:
		return fmt.Errorf("unknown job %q (supported: %s, %s)", job, jobBrief, jobRates)
	}
}

func (a *app) close(timeout time.Duration) {
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.web.Shutdown(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("Dashboard shutdown error")
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Store close error")
	}
}
