package position

import (
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

// ErrNoBreakEven reports that no break-even price exists because collected
// fees already cover the initial value.
var ErrNoBreakEven = errors.New("no break-even price")

// solverMaxIterations bounds the bisection; with a 100x bracket this is far
// more than binary search needs to reach minor-unit resolution.
const solverMaxIterations = 50

// BreakEvenSolver searches price space for the point where a position's
// value, net of collected fees, recovers its initial value.
type BreakEvenSolver struct {
	tickSpacing int32
	logger      *zap.Logger
}

func NewBreakEvenSolver(tickSpacing int32, logger *zap.Logger) *BreakEvenSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakEvenSolver{tickSpacing: tickSpacing, logger: logger}
}

// Solve bisects the bracket [currentPrice/10, currentPrice*10] for a price
// where the position value matches initialValue minus collectedFees. A nil
// collectedFees counts as zero. When the iteration budget runs out before
// the tolerance is met, the final bracket midpoint is returned as a
// best-effort approximation rather than an error; callers needing certainty
// must re-check the value at the returned price.
func (s *BreakEvenSolver) Solve(snap Snapshot, currentPrice, collectedFees *big.Int) (*big.Int, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if currentPrice == nil || currentPrice.Sign() <= 0 {
		return nil, fmt.Errorf("current price must be positive, got %v: %w", currentPrice, uniswapv3.ErrInvalidPrice)
	}
	if s.tickSpacing <= 0 {
		return nil, fmt.Errorf("tick spacing must be positive, got %d", s.tickSpacing)
	}

	target := new(big.Int).Set(snap.InitialValue)
	if collectedFees != nil {
		target.Sub(target, collectedFees)
	}
	if target.Sign() <= 0 {
		return nil, fmt.Errorf("collected fees already cover the initial value: %w", ErrNoBreakEven)
	}

	lo := new(big.Int).Div(currentPrice, big.NewInt(10))
	if lo.Sign() <= 0 {
		lo = big.NewInt(1)
	}
	hi := new(big.Int).Mul(currentPrice, big.NewInt(10))
	tol := tolerance(snap.QuoteDecimals)

	// Position value is non-decreasing in the quote-per-base price, flat
	// outside the range, so plain bisection narrows the bracket correctly.
	for i := 0; i < solverMaxIterations; i++ {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		value, err := s.valueAtSnapped(snap, mid)
		if err != nil {
			return nil, fmt.Errorf("value at candidate price %s: %w", mid, err)
		}
		diff := new(big.Int).Sub(value, target)
		if diff.CmpAbs(tol) <= 0 {
			return mid, nil
		}
		if diff.Sign() < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	mid := new(big.Int).Add(lo, hi)
	mid.Rsh(mid, 1)
	s.logger.Debug("break-even search exhausted its iteration budget",
		zap.String("bracket_low", lo.String()),
		zap.String("bracket_high", hi.String()),
		zap.String("midpoint", mid.String()),
	)
	return mid, nil
}

// valueAtSnapped values the position at a candidate price whose tick has
// been snapped onto the pool's spacing grid, the way an actual pool price
// would sit.
func (s *BreakEvenSolver) valueAtSnapped(snap Snapshot, price *big.Int) (*big.Int, error) {
	tick, err := uniswapv3.TickAtPrice(price, snap.BaseIsToken0, snap.BaseDecimals)
	if err != nil {
		return nil, err
	}
	tick = uniswapv3.SnapTick(tick, s.tickSpacing)
	return uniswapv3.PositionValue(snap.Liquidity, tick, snap.TickLower, snap.TickUpper, price, snap.BaseIsToken0, snap.BaseDecimals)
}

// tolerance is 10^(quoteDecimals-4), floored at one minor unit for quote
// tokens with fewer than four decimals.
func tolerance(quoteDecimals uint8) *big.Int {
	if quoteDecimals < 4 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(quoteDecimals)-4), nil)
}
