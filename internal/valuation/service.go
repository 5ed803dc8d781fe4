package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/chain"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/oracle"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/position"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/storage"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

// Config holds runtime settings for a valuation run.
type Config struct {
	Positions     []model.Position
	IDs           []string // when set, only these position ids are valued
	WithCurve     bool
	WithBreakEven bool
	PriceOverride *big.Int
	BlockNumber   uint64
	WatchInterval time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	SavePositions bool
}

// MetaReader is the slice of the dex reader the service needs.
type MetaReader interface {
	PoolMeta(ctx context.Context, pool common.Address) (model.PoolMeta, error)
	TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error)
}

// RunResult carries one run's reports and the per-quote-token totals.
type RunResult struct {
	Reports   []model.ValuationReport  `json:"reports"`
	Portfolio []model.PortfolioSummary `json:"portfolio,omitempty"`
}

// Service values tracked positions against pool prices and emits reports.
type Service struct {
	cfg    Config
	store  storage.PositionStore
	sink   storage.ReportSink
	meta   MetaReader
	source oracle.Source
	logger *zap.Logger
}

// NewService builds a Service with its dependencies. store and sink may be
// nil for runs that only return results to the caller.
func NewService(cfg Config, store storage.PositionStore, sink storage.ReportSink, meta MetaReader, source oracle.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:    cfg,
		store:  store,
		sink:   sink,
		meta:   meta,
		source: source,
		logger: logger,
	}
}

type evaluation struct {
	report  model.ValuationReport
	quote   model.TokenMeta
	value   *big.Int
	pnl     *big.Int
	initial *big.Int
}

// Run values every tracked position once. A failing position is logged and
// skipped so one bad pool cannot block the rest; the run errors only when
// nothing could be valued.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	if s.meta == nil {
		return nil, fmt.Errorf("meta reader is nil")
	}
	if s.source == nil {
		return nil, fmt.Errorf("quote source is nil")
	}

	positions, err := s.loadPositions(ctx)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		s.logger.Info("no positions to value")
		return &RunResult{}, nil
	}

	if s.cfg.SavePositions && s.store != nil {
		if err := s.store.SavePositions(ctx, positions); err != nil {
			return nil, fmt.Errorf("save positions: %w", err)
		}
	}

	result := &RunResult{}
	totals := make(map[string]*portfolioAccumulator)
	failed := 0
	for _, p := range positions {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		eval, err := s.evaluate(ctx, p)
		if err != nil {
			failed++
			s.logger.Warn("position valuation failed", zap.String("position", p.ID), zap.Error(err))
			continue
		}
		result.Reports = append(result.Reports, eval.report)

		key := strings.ToLower(eval.quote.Address)
		acc, ok := totals[key]
		if !ok {
			acc = newPortfolioAccumulator(eval.quote)
			totals[key] = acc
		}
		acc.add(eval.value, eval.pnl, eval.initial)
	}

	if len(result.Reports) == 0 && failed > 0 {
		return nil, fmt.Errorf("all %d positions failed", failed)
	}

	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		acc := totals[key]
		result.Portfolio = append(result.Portfolio, acc.summary())
		s.logger.Info("portfolio total",
			zap.String("quote", acc.displayName()),
			zap.Int("positions", acc.positions),
			zap.String("value", FormatAmount(acc.totalValue, acc.quoteDecimals)),
			zap.String("pnl", FormatAmount(acc.totalPnL, acc.quoteDecimals)),
		)
	}

	if s.sink != nil {
		if err := s.sink.PutReportBatch(result.Reports); err != nil {
			return nil, fmt.Errorf("store reports: %w", err)
		}
	}

	return result, nil
}

// Watch re-values positions on a fixed interval until the context ends.
// Individual run failures are logged, not fatal.
func (s *Service) Watch(ctx context.Context) error {
	if s.cfg.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be greater than zero")
	}

	if _, err := s.Run(ctx); err != nil {
		s.logger.Warn("valuation run failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.cfg.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Warn("valuation run failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) loadPositions(ctx context.Context) ([]model.Position, error) {
	positions := make([]model.Position, 0, len(s.cfg.Positions))
	positions = append(positions, s.cfg.Positions...)

	if s.store != nil {
		stored, err := s.store.LoadPositions(ctx)
		if err != nil {
			return nil, fmt.Errorf("load positions: %w", err)
		}
		// Directly supplied positions win over stored ones with the same id.
		seen := make(map[string]struct{}, len(positions))
		for _, p := range positions {
			seen[p.ID] = struct{}{}
		}
		for _, p := range stored {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			positions = append(positions, p)
		}
	}

	if len(s.cfg.IDs) > 0 {
		wanted := make(map[string]struct{}, len(s.cfg.IDs))
		for _, id := range s.cfg.IDs {
			wanted[id] = struct{}{}
		}
		filtered := positions[:0]
		for _, p := range positions {
			if _, ok := wanted[p.ID]; ok {
				filtered = append(filtered, p)
			}
		}
		positions = filtered
	}

	return positions, nil
}

func (s *Service) evaluate(ctx context.Context, p model.Position) (evaluation, error) {
	pool, err := ParseAddress(p.Pool)
	if err != nil {
		return evaluation{}, fmt.Errorf("pool: %w", err)
	}
	base, err := ParseAddress(p.BaseToken)
	if err != nil {
		return evaluation{}, fmt.Errorf("base token: %w", err)
	}
	quoteToken, err := ParseAddress(p.QuoteToken)
	if err != nil {
		return evaluation{}, fmt.Errorf("quote token: %w", err)
	}

	poolMeta, err := s.poolMetaWithRetry(ctx, pool)
	if err != nil {
		return evaluation{}, fmt.Errorf("pool meta: %w", err)
	}
	baseIsToken0, err := poolSide(poolMeta, base, quoteToken)
	if err != nil {
		return evaluation{}, err
	}

	baseMeta, err := s.tokenMetaWithRetry(ctx, base)
	if err != nil {
		return evaluation{}, fmt.Errorf("base token meta: %w", err)
	}
	quoteMeta, err := s.tokenMetaWithRetry(ctx, quoteToken)
	if err != nil {
		return evaluation{}, fmt.Errorf("quote token meta: %w", err)
	}

	snap, err := SnapshotFromPosition(p, baseMeta.Decimals, quoteMeta.Decimals, baseIsToken0)
	if err != nil {
		return evaluation{}, err
	}

	price, tick, blockNumber, err := s.currentPrice(ctx, pool, base, quoteToken, baseMeta.Decimals, snap)
	if err != nil {
		return evaluation{}, err
	}

	value, err := position.ValueAt(snap, price)
	if err != nil {
		return evaluation{}, fmt.Errorf("value: %w", err)
	}
	pnl, err := position.PnLAt(snap, price)
	if err != nil {
		return evaluation{}, fmt.Errorf("pnl: %w", err)
	}

	report := model.ValuationReport{
		PositionID:  p.ID,
		ChainID:     p.ChainID,
		Pool:        pool.Hex(),
		Timestamp:   uint64(time.Now().UTC().Unix()),
		BlockNumber: blockNumber,
		Price:       price.String(),
		Tick:        tick,
		Value:       value.String(),
		PnL:         pnl.String(),
		PoolMeta:    poolMeta,
		Base:        baseMeta,
		Quote:       quoteMeta,
	}

	if s.cfg.WithBreakEven {
		fees, err := CollectedFees(p)
		if err != nil {
			return evaluation{}, err
		}
		solver := position.NewBreakEvenSolver(poolMeta.TickSpacing, s.logger)
		breakEven, err := solver.Solve(snap, price, fees)
		switch {
		case errors.Is(err, position.ErrNoBreakEven):
			s.logger.Info("fees already cover the initial value", zap.String("position", p.ID))
		case err != nil:
			return evaluation{}, fmt.Errorf("break even: %w", err)
		default:
			report.BreakEven = breakEven.String()
		}
	}

	if s.cfg.WithCurve {
		curve, err := position.NewCurveGenerator(s.logger).Generate(snap, price)
		if err != nil {
			return evaluation{}, fmt.Errorf("curve: %w", err)
		}
		payload, err := json.Marshal(curve)
		if err != nil {
			return evaluation{}, fmt.Errorf("marshal curve: %w", err)
		}
		report.Curve = payload
	}

	s.logger.Info("position valued",
		zap.String("position", p.ID),
		zap.String("price", price.String()),
		zap.String("value", FormatAmount(value, quoteMeta.Decimals)),
		zap.String("pnl", FormatAmount(pnl, quoteMeta.Decimals)),
	)

	return evaluation{
		report:  report,
		quote:   quoteMeta,
		value:   value,
		pnl:     pnl,
		initial: snap.InitialValue,
	}, nil
}

// poolSide resolves which pool token is the base. Both position tokens must
// be the pool's actual pair.
func poolSide(meta model.PoolMeta, base, quote common.Address) (bool, error) {
	token0 := common.HexToAddress(meta.Token0)
	token1 := common.HexToAddress(meta.Token1)
	switch {
	case base == token0 && quote == token1:
		return true, nil
	case base == token1 && quote == token0:
		return false, nil
	default:
		return false, fmt.Errorf("tokens %s/%s do not match pool pair %s/%s", base.Hex(), quote.Hex(), meta.Token0, meta.Token1)
	}
}

func (s *Service) currentPrice(ctx context.Context, pool, base, quote common.Address, baseDecimals uint8, snap position.Snapshot) (*big.Int, int32, uint64, error) {
	if s.cfg.PriceOverride != nil {
		tick, err := uniswapv3.TickAtPrice(s.cfg.PriceOverride, snap.BaseIsToken0, baseDecimals)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("override price: %w", err)
		}
		return new(big.Int).Set(s.cfg.PriceOverride), tick, 0, nil
	}

	req := oracle.QuoteRequest{
		Pool:         pool,
		Base:         base,
		Quote:        quote,
		BaseDecimals: baseDecimals,
		BlockNumber:  s.cfg.BlockNumber,
	}
	var q oracle.Quote
	err := chain.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		q, err = s.source.QuoteAt(ctx, req)
		if err != nil {
			s.logger.Warn("quote failed", zap.String("pool", pool.Hex()), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("quote: %w", err)
	}
	return q.Price, q.Tick, q.BlockNumber, nil
}

func (s *Service) poolMetaWithRetry(ctx context.Context, pool common.Address) (model.PoolMeta, error) {
	var meta model.PoolMeta
	err := chain.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		meta, err = s.meta.PoolMeta(ctx, pool)
		if err != nil {
			s.logger.Warn("pool meta fetch failed", zap.String("pool", pool.Hex()), zap.Error(err))
		}
		return err
	})
	return meta, err
}

func (s *Service) tokenMetaWithRetry(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	var meta model.TokenMeta
	err := chain.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		meta, err = s.meta.TokenMeta(ctx, token)
		if err != nil {
			s.logger.Warn("token meta fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		return err
	})
	return meta, err
}
