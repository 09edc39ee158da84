// Package recorder persists simulation telemetry. Recording is
// write-only: the simulation never reads state back, so a failed or
// absent database only costs history, not gameplay.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"orbitals/internal/engine"
	"orbitals/internal/feed"
)

// Recorder receives tick snapshots and feed events.
type Recorder interface {
	RecordTick(ctx context.Context, status engine.Status, reports []engine.CompanyReport) error
	RecordEvent(ctx context.Context, ev feed.Event) error
	Close()
}

// Noop discards everything; used when no database is configured.
type Noop struct{}

func (Noop) RecordTick(context.Context, engine.Status, []engine.CompanyReport) error { return nil }
func (Noop) RecordEvent(context.Context, feed.Event) error                           { return nil }
func (Noop) Close()                                                                  {}

const schema = `
CREATE TABLE IF NOT EXISTS sim_ticks (
	id BIGSERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	day INT NOT NULL,
	quarter INT NOT NULL,
	tick INT NOT NULL,
	cash DOUBLE PRECISION NOT NULL,
	portfolio_value DOUBLE PRECISION NOT NULL,
	ceo_rating INT NOT NULL,
	disruption DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS sim_company_ticks (
	id BIGSERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	tick INT NOT NULL,
	company TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	public_float INT NOT NULL,
	player_shares INT NOT NULL,
	asset_income DOUBLE PRECISION NOT NULL,
	dividends_paid DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS sim_events (
	id UUID PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	tone TEXT NOT NULL,
	message TEXT NOT NULL
);
`

// Postgres stores telemetry in three append-only tables.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens the pool, verifies the connection and ensures the
// telemetry tables exist.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) RecordTick(ctx context.Context, status engine.Status, reports []engine.CompanyReport) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sim_ticks (day, quarter, tick, cash, portfolio_value, ceo_rating, disruption)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		status.Day, status.Quarter, status.Tick,
		status.Cash, status.PortfolioValue, status.CEORating, status.Disruption,
	)
	if err != nil {
		return fmt.Errorf("record tick: %w", err)
	}
	for _, r := range reports {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO sim_company_ticks (tick, company, price, public_float, player_shares, asset_income, dividends_paid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			status.Tick, r.Name, r.Price, r.Float, r.Owned, r.AssetIncome, r.DividendsPaid,
		)
		if err != nil {
			return fmt.Errorf("record company tick: %w", err)
		}
	}
	return nil
}

func (p *Postgres) RecordEvent(ctx context.Context, ev feed.Event) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sim_events (id, recorded_at, tone, message)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.At, string(ev.Tone), ev.Message,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
