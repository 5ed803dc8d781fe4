// Package position values Uniswap V3 liquidity positions: quote-unit value
// and PnL at arbitrary prices, the discretized price/PnL curve used for
// charting, and the break-even price search. Everything operates on frozen
// snapshots and returns fresh values; nothing here keeps state between
// calls.
package position

import (
	"fmt"
	"math/big"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

// Snapshot is the minimal frozen input needed to value a position at any
// price. InitialValue is captured in quote minor units when the position is
// opened and never recomputed.
type Snapshot struct {
	Liquidity     *big.Int
	TickLower     int32
	TickUpper     int32
	BaseIsToken0  bool
	BaseDecimals  uint8
	QuoteDecimals uint8
	InitialValue  *big.Int
}

// Validate rejects malformed snapshots before any computation starts.
func (s Snapshot) Validate() error {
	if s.Liquidity == nil || s.Liquidity.Sign() < 0 {
		return fmt.Errorf("liquidity %v: %w", s.Liquidity, uniswapv3.ErrNegativeLiquidity)
	}
	if s.TickLower >= s.TickUpper {
		return fmt.Errorf("tick range [%d, %d) is empty: %w", s.TickLower, s.TickUpper, uniswapv3.ErrInvalidRange)
	}
	if s.TickLower < uniswapv3.MinTick || s.TickUpper > uniswapv3.MaxTick {
		return fmt.Errorf("tick range [%d, %d] outside protocol bounds: %w", s.TickLower, s.TickUpper, uniswapv3.ErrInvalidTick)
	}
	if s.InitialValue == nil {
		return fmt.Errorf("initial value is required")
	}
	return nil
}
