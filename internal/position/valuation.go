package position

import (
	"math/big"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

// ValueAt returns the position's value in quote minor units at a
// hypothetical price, resolving the tick for that price first. Errors from
// the underlying math are propagated, never swallowed.
func ValueAt(snap Snapshot, price *big.Int) (*big.Int, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	tick, err := uniswapv3.TickAtPrice(price, snap.BaseIsToken0, snap.BaseDecimals)
	if err != nil {
		return nil, err
	}
	return uniswapv3.PositionValue(snap.Liquidity, tick, snap.TickLower, snap.TickUpper, price, snap.BaseIsToken0, snap.BaseDecimals)
}

// PnLAt is ValueAt minus the snapshot's initial value. Pure integer
// subtraction, no rounding.
func PnLAt(snap Snapshot, price *big.Int) (*big.Int, error) {
	value, err := ValueAt(snap, price)
	if err != nil {
		return nil, err
	}
	return value.Sub(value, snap.InitialValue), nil
}
