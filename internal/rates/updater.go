package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/report"
	"github.com/ryosukesatoh/daily-brief/internal/store"
)

// Store is the subset of store.Store the updater needs.
type Store interface {
	SaveExchangeRate(ctx context.Context, r report.ExchangeRate) error
	ExchangeRate(ctx context.Context, date string) (*report.ExchangeRate, error)
	LatestExchangeRate(ctx context.Context) (*report.ExchangeRate, error)
}

// Outcome describes what an update did.
type Outcome string

const (
	OutcomeExists  Outcome = "exists"
	OutcomeFetched Outcome = "fetched"
	OutcomeCopied  Outcome = "copied"
	OutcomeNoData  Outcome = "no_data"
)

type Updater struct {
	fetcher  Fetcher
	store    Store
	location *time.Location
	logger   arbor.ILogger
	now      func() time.Time
}

func NewUpdater(fetcher Fetcher, st Store, loc *time.Location, logger arbor.ILogger) *Updater {
	if loc == nil {
		loc = time.UTC
	}
	return &Updater{
		fetcher:  fetcher,
		store:    st,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Update stores today's rate once. Days without a published rate reuse the
// most recent stored one. A provider error aborts without writing.
func (u *Updater) Update(ctx context.Context) (Outcome, error) {
	today := u.now().In(u.location)
	date := today.Format("2006-01-02")
	logger := u.logger.WithCorrelationId("rates-" + date)

	existing, err := u.store.ExchangeRate(ctx, date)
	switch {
	case err == nil:
		logger.Info().Str("date", date).Float64("usd_krw", existing.USDKRW).Msg("Rate already stored")
		return OutcomeExists, nil
	case !errors.Is(err, store.ErrNotFound):
		logger.Warn().Err(err).Str("date", date).Msg("Failed to check existing rate")
	}

	rate, ok, err := u.fetcher.Fetch(ctx, today)
	if err != nil {
		logger.Error().Err(err).Str("date", date).Msg("Rate API failed, aborting")
		return "", fmt.Errorf("rates: fetch %s: %w", date, err)
	}

	if ok {
		if err := u.store.SaveExchangeRate(ctx, report.ExchangeRate{Date: date, USDKRW: rate}); err != nil {
			return "", fmt.Errorf("rates: save %s: %w", date, err)
		}
		logger.Info().Str("date", date).Float64("usd_krw", rate).Msg("Saved today's rate")
		return OutcomeFetched, nil
	}

	latest, err := u.store.LatestExchangeRate(ctx)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn().Str("date", date).Msg("No rate published and no previous rate to copy")
		return OutcomeNoData, nil
	}
	if err != nil {
		return "", fmt.Errorf("rates: latest rate: %w", err)
	}

	if err := u.store.SaveExchangeRate(ctx, report.ExchangeRate{Date: date, USDKRW: latest.USDKRW}); err != nil {
		return "", fmt.Errorf("rates: save %s: %w", date, err)
	}
	logger.Info().
		Str("date", date).
		Str("copied_from", latest.Date).
		Float64("usd_krw", latest.USDKRW).
		Msg("No rate published, copied previous rate")
	return OutcomeCopied, nil
}
