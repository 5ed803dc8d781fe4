package uniswapv3

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BaseIsToken0 reports whether the base token is token0 of the pool, i.e.
// whether its address sorts below the quote token's address. Pools order
// their tokens by address; every sqrt-ratio is defined in token1/token0
// terms, so user-facing base/quote prices must resolve this first.
func BaseIsToken0(base, quote common.Address) bool {
	return base.Cmp(quote) < 0
}

// TickToPrice converts a tick to the price of one whole base token,
// expressed in quote-token minor units. Token ordering is derived from the
// addresses; the decimal rescaling stays inside the integer math.
func TickToPrice(tick int32, baseToken, quoteToken common.Address, baseDecimals uint8) (*big.Int, error) {
	if baseToken == quoteToken {
		return nil, fmt.Errorf("base and quote token must differ, got %s twice", baseToken.Hex())
	}
	sqrtRatio, err := GetSqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}
	return PriceAtSqrtRatio(sqrtRatio, BaseIsToken0(baseToken, quoteToken), baseDecimals)
}

// PriceToTick converts a quote-minor-unit price back to a tick and snaps it
// toward zero onto a multiple of tickSpacing, matching how on-chain
// positions must align their bounds.
func PriceToTick(price *big.Int, tickSpacing int32, baseToken, quoteToken common.Address, baseDecimals uint8) (int32, error) {
	if baseToken == quoteToken {
		return 0, fmt.Errorf("base and quote token must differ, got %s twice", baseToken.Hex())
	}
	if tickSpacing <= 0 {
		return 0, fmt.Errorf("tick spacing must be positive, got %d", tickSpacing)
	}
	tick, err := TickAtPrice(price, BaseIsToken0(baseToken, quoteToken), baseDecimals)
	if err != nil {
		return 0, err
	}
	return SnapTick(tick, tickSpacing), nil
}

// SnapTick rounds tick toward zero onto a multiple of spacing.
func SnapTick(tick, spacing int32) int32 {
	return (tick / spacing) * spacing
}

// PriceAtSqrtRatio computes the quote-minor-unit price of one whole base
// token from a sqrt ratio, for callers that already resolved token
// ordering. The raw token1/token0 ratio is sqrtRatio^2 / 2^192; multiplying
// by 10^baseDecimals turns it into minor units per whole base token, with
// the inverse form when the base is token1.
func PriceAtSqrtRatio(sqrtRatioX96 *big.Int, baseIsToken0 bool, baseDecimals uint8) (*big.Int, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) > 0 {
		return nil, fmt.Errorf("sqrt ratio %v outside valid bounds: %w", sqrtRatioX96, ErrInvalidSqrtRatio)
	}
	ratioSq := new(big.Int).Mul(sqrtRatioX96, sqrtRatioX96)
	scale := pow10(baseDecimals)
	if baseIsToken0 {
		price := new(big.Int).Mul(ratioSq, scale)
		return price.Rsh(price, 192), nil
	}
	price := new(big.Int).Lsh(scale, 192)
	return price.Div(price, ratioSq), nil
}

// SqrtRatioAtPrice inverts PriceAtSqrtRatio with a floor square root.
// Fails when the price maps outside the representable sqrt-ratio band.
func SqrtRatioAtPrice(price *big.Int, baseIsToken0 bool, baseDecimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("price must be positive, got %v: %w", price, ErrInvalidPrice)
	}
	scale := pow10(baseDecimals)
	ratioSq := new(big.Int)
	if baseIsToken0 {
		ratioSq.Lsh(price, 192)
		ratioSq.Div(ratioSq, scale)
	} else {
		ratioSq.Lsh(scale, 192)
		ratioSq.Div(ratioSq, price)
	}
	sqrtRatio := ratioSq.Sqrt(ratioSq)
	if sqrtRatio.Cmp(MinSqrtRatio) < 0 || sqrtRatio.Cmp(MaxSqrtRatio) > 0 {
		return nil, fmt.Errorf("price %v maps outside the tick range: %w", price, ErrInvalidSqrtRatio)
	}
	return sqrtRatio, nil
}

// TickAtPrice resolves the tick corresponding to a quote-minor-unit price.
// No tick-spacing snap is applied.
func TickAtPrice(price *big.Int, baseIsToken0 bool, baseDecimals uint8) (int32, error) {
	sqrtRatio, err := SqrtRatioAtPrice(price, baseIsToken0, baseDecimals)
	if err != nil {
		return 0, err
	}
	return GetTickAtSqrtRatio(sqrtRatio)
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
