package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

// Store provides Postgres persistence for positions and valuation reports.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SavePositions inserts or updates tracked positions.
func (s *Store) SavePositions(ctx context.Context, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range positions {
		batch.Queue(`
			INSERT INTO positions (
				id, chain_id, pool_address, base_token, quote_token,
				tick_lower, tick_upper, liquidity, initial_value,
				collected_fees, opened_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
			ON CONFLICT (id)
			DO UPDATE SET
				chain_id = EXCLUDED.chain_id,
				pool_address = EXCLUDED.pool_address,
				base_token = EXCLUDED.base_token,
				quote_token = EXCLUDED.quote_token,
				tick_lower = EXCLUDED.tick_lower,
				tick_upper = EXCLUDED.tick_upper,
				liquidity = EXCLUDED.liquidity,
				initial_value = EXCLUDED.initial_value,
				collected_fees = EXCLUDED.collected_fees,
				opened_at = EXCLUDED.opened_at,
				updated_at = now()
		`,
			p.ID,
			int64(p.ChainID),
			p.Pool,
			p.BaseToken,
			p.QuoteToken,
			p.TickLower,
			p.TickUpper,
			p.Liquidity,
			p.InitialValue,
			nullable(p.CollectedFees),
			nullable(p.OpenedAt),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPositions returns all tracked positions ordered by id.
func (s *Store) LoadPositions(ctx context.Context) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chain_id, pool_address, base_token, quote_token,
		       tick_lower, tick_upper, liquidity::text, initial_value::text,
		       COALESCE(collected_fees::text, ''), COALESCE(opened_at, '')
		FROM positions
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var chainID int64
		if err := rows.Scan(
			&p.ID, &chainID, &p.Pool, &p.BaseToken, &p.QuoteToken,
			&p.TickLower, &p.TickUpper, &p.Liquidity, &p.InitialValue,
			&p.CollectedFees, &p.OpenedAt,
		); err != nil {
			return nil, err
		}
		p.ChainID = uint64(chainID)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// LoadPosition returns one position by id; the bool reports whether it exists.
func (s *Store) LoadPosition(ctx context.Context, id string) (model.Position, bool, error) {
	if id == "" {
		return model.Position{}, false, fmt.Errorf("position id required")
	}
	var p model.Position
	var chainID int64
	row := s.pool.QueryRow(ctx, `
		SELECT id, chain_id, pool_address, base_token, quote_token,
		       tick_lower, tick_upper, liquidity::text, initial_value::text,
		       COALESCE(collected_fees::text, ''), COALESCE(opened_at, '')
		FROM positions
		WHERE id = $1
	`, id)
	if err := row.Scan(
		&p.ID, &chainID, &p.Pool, &p.BaseToken, &p.QuoteToken,
		&p.TickLower, &p.TickUpper, &p.Liquidity, &p.InitialValue,
		&p.CollectedFees, &p.OpenedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Position{}, false, nil
		}
		return model.Position{}, false, err
	}
	p.ChainID = uint64(chainID)
	return p, true, nil
}

// InsertReports appends valuation reports.
func (s *Store) InsertReports(ctx context.Context, reports []model.ValuationReport) error {
	if len(reports) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range reports {
		batch.Queue(`
			INSERT INTO valuation_reports (
				position_id, chain_id, pool_address, ts, block_number,
				price, tick, value, pnl, break_even, curve, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, now())
		`,
			r.PositionID,
			int64(r.ChainID),
			r.Pool,
			int64(r.Timestamp),
			int64(r.BlockNumber),
			r.Price,
			r.Tick,
			r.Value,
			r.PnL,
			nullable(r.BreakEven),
			nullable(string(r.Curve)),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range reports {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ReportSink adapts the store to the batch sink interface used by the
// valuation service, which carries no request context.
type ReportSink struct {
	store *Store
}

func NewReportSink(store *Store) *ReportSink {
	return &ReportSink{store: store}
}

func (s *ReportSink) PutReportBatch(reports []model.ValuationReport) error {
	return s.store.InsertReports(context.Background(), reports)
}
