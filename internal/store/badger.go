package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ryosukesatoh/daily-brief/internal/report"
)

// BadgerStore keeps records in an embedded Badger database. It serves
// single-host installs and dry runs without a Postgres server.
type BadgerStore struct {
	store  *badgerhold.Store
	clock  clock
	logger arbor.ILogger
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) the database in dir.
func NewBadgerStore(dir string, loc *time.Location, logger arbor.ILogger) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", dir).Msg("Badger store initialized")
	return &BadgerStore{store: store, clock: newClock(loc), logger: logger}, nil
}

func (s *BadgerStore) SaveIndividualReport(ctx context.Context, r report.Individual) error {
	stampIndividual(&r, s.clock.now())
	if err := s.store.Insert(r.ID, &r); err != nil {
		return fmt.Errorf("store: save individual report: %w", err)
	}
	return nil
}

func (s *BadgerStore) SaveDailyReport(ctx context.Context, d report.Daily) error {
	stampDaily(&d, s.clock.now())
	if err := s.store.Insert(d.ID, &d); err != nil {
		return fmt.Errorf("store: save daily report: %w", err)
	}
	return nil
}

func (s *BadgerStore) Subscribers(ctx context.Context, lang report.Language) ([]string, error) {
	var subs []report.Subscriber
	query := badgerhold.Where("Language").Eq(lang).And("Active").Eq(true).SortBy("Email")
	if err := s.store.Find(&subs, query); err != nil {
		return nil, fmt.Errorf("store: query subscribers: %w", err)
	}

	emails := make([]string, 0, len(subs))
	for _, sub := range subs {
		emails = append(emails, sub.Email)
	}
	return emails, nil
}

func (s *BadgerStore) Subscribe(ctx context.Context, email string, lang report.Language) error {
	now := s.clock.now()
	sub := report.Subscriber{
		Email:     email,
		Language:  lang,
		Active:    true,
		StartDate: s.clock.today(),
		UpdatedAt: now,
	}
	if err := s.store.Upsert(email, &sub); err != nil {
		return fmt.Errorf("store: subscribe %s: %w", email, err)
	}
	return s.logAction(email, report.ActionSubscribe, now)
}

func (s *BadgerStore) Unsubscribe(ctx context.Context, email string) error {
	var sub report.Subscriber
	err := s.store.Get(email, &sub)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: get subscriber %s: %w", email, err)
	}

	now := s.clock.now()
	sub.Active = false
	sub.EndDate = s.clock.today()
	sub.UpdatedAt = now
	if err := s.store.Update(email, &sub); err != nil {
		return fmt.Errorf("store: unsubscribe %s: %w", email, err)
	}
	return s.logAction(email, report.ActionUnsubscribe, now)
}

// logAction keys entries with time-ordered UUIDs so entries sharing a
// timestamp still sort in insertion order.
func (s *BadgerStore) logAction(email, action string, now time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("store: log id: %w", err)
	}
	entry := report.SubscriptionLog{
		ID:        id.String(),
		Email:     email,
		Action:    action,
		CreatedAt: now,
	}
	if err := s.store.Insert(entry.ID, &entry); err != nil {
		return fmt.Errorf("store: log %s %s: %w", action, email, err)
	}
	return nil
}

// SubscriptionLogs returns the audit entries for email, oldest first.
func (s *BadgerStore) SubscriptionLogs(email string) ([]report.SubscriptionLog, error) {
	var logs []report.SubscriptionLog
	if err := s.store.Find(&logs, badgerhold.Where("Email").Eq(email).SortBy("CreatedAt", "ID")); err != nil {
		return nil, fmt.Errorf("store: query subscription logs: %w", err)
	}
	return logs, nil
}

func (s *BadgerStore) LatestDailyReport(ctx context.Context) (*report.Daily, error) {
	var out []report.Daily
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.store.Find(&out, query); err != nil {
		return nil, fmt.Errorf("store: latest daily report: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *BadgerStore) ListIndividualReports(ctx context.Context, limit int) ([]report.Individual, error) {
	var out []report.Individual
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.store.Find(&out, query); err != nil {
		return nil, fmt.Errorf("store: list individual reports: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) SaveExchangeRate(ctx context.Context, r report.ExchangeRate) error {
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("store: invalid rate date %q: %w", r.Date, err)
	}
	if err := s.store.Upsert(r.Date, &r); err != nil {
		return fmt.Errorf("store: save exchange rate: %w", err)
	}
	return nil
}

func (s *BadgerStore) ExchangeRate(ctx context.Context, date string) (*report.ExchangeRate, error) {
	var r report.ExchangeRate
	err := s.store.Get(date, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get exchange rate: %w", err)
	}
	return &r, nil
}

func (s *BadgerStore) LatestExchangeRate(ctx context.Context) (*report.ExchangeRate, error) {
	var out []report.ExchangeRate
	query := badgerhold.Where("Date").Ne("").SortBy("Date").Reverse().Limit(1)
	if err := s.store.Find(&out, query); err != nil {
		return nil, fmt.Errorf("store: latest exchange rate: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *BadgerStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
