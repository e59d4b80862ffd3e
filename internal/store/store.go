// Package store persists reports, subscribers and exchange rates.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
	"github.com/ryosukesatoh/daily-brief/internal/report"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// dateLayout is the layout of subscriber and exchange-rate dates.
const dateLayout = "2006-01-02"

// Store is the persistence boundary of the pipeline.
type Store interface {
	SaveIndividualReport(ctx context.Context, r report.Individual) error
	SaveDailyReport(ctx context.Context, d report.Daily) error
	// Subscribers returns the emails of active subscribers for lang.
	Subscribers(ctx context.Context, lang report.Language) ([]string, error)
	// Subscribe activates email for lang, creating the subscriber if needed.
	Subscribe(ctx context.Context, email string, lang report.Language) error
	// Unsubscribe deactivates email. Returns ErrNotFound for unknown emails.
	Unsubscribe(ctx context.Context, email string) error
	LatestDailyReport(ctx context.Context) (*report.Daily, error)
	ListIndividualReports(ctx context.Context, limit int) ([]report.Individual, error)
	// SaveExchangeRate inserts or replaces the rate for its date.
	SaveExchangeRate(ctx context.Context, r report.ExchangeRate) error
	ExchangeRate(ctx context.Context, date string) (*report.ExchangeRate, error)
	LatestExchangeRate(ctx context.Context) (*report.ExchangeRate, error)
	Close() error
}

// New opens the backend selected by cfg.Type. Dates written by the store
// (subscription start and end) are computed in loc.
func New(ctx context.Context, cfg config.StoreConfig, loc *time.Location, logger arbor.ILogger) (Store, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN, loc, logger)
	case "badger":
		return NewBadgerStore(cfg.Path, loc, logger)
	default:
		return nil, fmt.Errorf("store: unsupported type %q", cfg.Type)
	}
}

// clock supplies timestamps and calendar dates for a store.
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.UTC
	}
	return clock{loc: loc, now: time.Now}
}

func (c clock) today() string {
	return c.now().In(c.loc).Format(dateLayout)
}

func stampIndividual(r *report.Individual, now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
}

func stampDaily(d *report.Daily, now time.Time) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
}
