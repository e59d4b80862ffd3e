package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS individual_reports (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	link       TEXT NOT NULL,
	summary_ko TEXT NOT NULL,
	summary_en TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS individual_reports_created_at_idx ON individual_reports (created_at DESC);

CREATE TABLE IF NOT EXISTS daily_reports (
	id         UUID PRIMARY KEY,
	title      TEXT NOT NULL,
	summary_ko TEXT NOT NULL,
	summary_en TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS daily_reports_created_at_idx ON daily_reports (created_at DESC);

CREATE TABLE IF NOT EXISTS subscribers (
	email      TEXT PRIMARY KEY,
	language   TEXT NOT NULL DEFAULT 'ko',
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	start_date DATE NOT NULL,
	end_date   DATE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscription_logs (
	id          UUID PRIMARY KEY,
	email       TEXT NOT NULL,
	action_type TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exchange_rates (
	date    DATE PRIMARY KEY,
	usd_krw DOUBLE PRECISION NOT NULL
);
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps records in Postgres.
type PostgresStore struct {
	pool   *pgxpool.Pool
	clock  clock
	logger arbor.ILogger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and creates missing tables.
func NewPostgresStore(ctx context.Context, dsn string, loc *time.Location, logger arbor.ILogger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect to database: %w", err)
	}

	s := &PostgresStore{pool: pool, clock: newClock(loc), logger: logger}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: failed to create schema: %w", err)
	}

	logger.Debug().Msg("Postgres store initialized")
	return s, nil
}

func (s *PostgresStore) exec(ctx context.Context, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("store: build query: %w", err)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) SaveIndividualReport(ctx context.Context, r report.Individual) error {
	stampIndividual(&r, s.clock.now())
	q := psql.Insert("individual_reports").
		Columns("id", "title", "link", "summary_ko", "summary_en", "created_at").
		Values(r.ID, r.Title, r.Link, r.SummaryKO, r.SummaryEN, r.CreatedAt)
	if _, err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("store: save individual report: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveDailyReport(ctx context.Context, d report.Daily) error {
	stampDaily(&d, s.clock.now())
	q := psql.Insert("daily_reports").
		Columns("id", "title", "summary_ko", "summary_en", "created_at").
		Values(d.ID, d.Title, d.SummaryKO, d.SummaryEN, d.CreatedAt)
	if _, err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("store: save daily report: %w", err)
	}
	return nil
}

func subscribersQuery(lang report.Language) sq.SelectBuilder {
	return psql.Select("email").
		From("subscribers").
		Where(sq.Eq{"is_active": true, "language": string(lang)}).
		OrderBy("email")
}

func (s *PostgresStore) Subscribers(ctx context.Context, lang report.Language) ([]string, error) {
	query, args, err := subscribersQuery(lang).ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query subscribers: %w", err)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("store: scan subscribers: %w", err)
	}
	return emails, nil
}

func subscribeQuery(email string, lang report.Language, start, now time.Time) sq.InsertBuilder {
	return psql.Insert("subscribers").
		Columns("email", "language", "is_active", "start_date", "end_date", "updated_at").
		Values(email, string(lang), true, start, nil, now).
		Suffix("ON CONFLICT (email) DO UPDATE SET " +
			"language = EXCLUDED.language, is_active = TRUE, " +
			"start_date = EXCLUDED.start_date, end_date = NULL, updated_at = EXCLUDED.updated_at")
}

func logQuery(email, action string, now time.Time) sq.InsertBuilder {
	return psql.Insert("subscription_logs").
		Columns("id", "email", "action_type", "created_at").
		Values(uuid.Must(uuid.NewV7()).String(), email, action, now)
}

func (s *PostgresStore) Subscribe(ctx context.Context, email string, lang report.Language) error {
	now := s.clock.now()
	start, _ := time.Parse(dateLayout, s.clock.today())

	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := txExec(ctx, tx, subscribeQuery(email, lang, start, now)); err != nil {
			return fmt.Errorf("store: subscribe %s: %w", email, err)
		}
		if err := txExec(ctx, tx, logQuery(email, report.ActionSubscribe, now)); err != nil {
			return fmt.Errorf("store: log subscribe %s: %w", email, err)
		}
		return nil
	})
}

func unsubscribeQuery(email string, end, now time.Time) sq.UpdateBuilder {
	return psql.Update("subscribers").
		Set("is_active", false).
		Set("end_date", end).
		Set("updated_at", now).
		Where(sq.Eq{"email": email})
}

func (s *PostgresStore) Unsubscribe(ctx context.Context, email string) error {
	now := s.clock.now()
	end, _ := time.Parse(dateLayout, s.clock.today())

	return s.withTx(ctx, func(tx pgx.Tx) error {
		query, args, err := unsubscribeQuery(email, end, now).ToSql()
		if err != nil {
			return fmt.Errorf("store: build query: %w", err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("store: unsubscribe %s: %w", email, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if err := txExec(ctx, tx, logQuery(email, report.ActionUnsubscribe, now)); err != nil {
			return fmt.Errorf("store: log unsubscribe %s: %w", email, err)
		}
		return nil
	})
}

func (s *PostgresStore) LatestDailyReport(ctx context.Context) (*report.Daily, error) {
	query, args, err := psql.Select("id", "title", "summary_ko", "summary_en", "created_at").
		From("daily_reports").
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}

	var d report.Daily
	err = s.pool.QueryRow(ctx, query, args...).Scan(&d.ID, &d.Title, &d.SummaryKO, &d.SummaryEN, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest daily report: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListIndividualReports(ctx context.Context, limit int) ([]report.Individual, error) {
	q := psql.Select("id", "title", "link", "summary_ko", "summary_en", "created_at").
		From("individual_reports").
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list individual reports: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.Individual, error) {
		var r report.Individual
		err := row.Scan(&r.ID, &r.Title, &r.Link, &r.SummaryKO, &r.SummaryEN, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan individual reports: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveExchangeRate(ctx context.Context, r report.ExchangeRate) error {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return fmt.Errorf("store: invalid rate date %q: %w", r.Date, err)
	}
	q := psql.Insert("exchange_rates").
		Columns("date", "usd_krw").
		Values(date, r.USDKRW).
		Suffix("ON CONFLICT (date) DO UPDATE SET usd_krw = EXCLUDED.usd_krw")
	if _, err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("store: save exchange rate: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExchangeRate(ctx context.Context, date string) (*report.ExchangeRate, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("store: invalid rate date %q: %w", date, err)
	}
	return s.queryRate(ctx, psql.Select("date", "usd_krw").From("exchange_rates").Where(sq.Eq{"date": d}))
}

func (s *PostgresStore) LatestExchangeRate(ctx context.Context) (*report.ExchangeRate, error) {
	return s.queryRate(ctx, psql.Select("date", "usd_krw").From("exchange_rates").OrderBy("date DESC").Limit(1))
}

func (s *PostgresStore) queryRate(ctx context.Context, q sq.SelectBuilder) (*report.ExchangeRate, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("store: build query: %w", err)
	}

	var (
		date time.Time
		rate report.ExchangeRate
	)
	err = s.pool.QueryRow(ctx, query, args...).Scan(&date, &rate.USDKRW)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: query exchange rate: %w", err)
	}
	rate.Date = date.Format(dateLayout)
	return &rate, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func txExec(ctx context.Context, tx pgx.Tx, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}
