package uniswapv3

import (
	"fmt"
	"math/big"
)

// GetAmountsForLiquidity returns the token0/token1 amounts a position of
// the given liquidity holds at the given tick. Below the range the
// position is entirely token0, above it entirely token1, in between the
// liquidity splits at the current sqrt ratio. All divisions are floor
// divisions on big integers.
func GetAmountsForLiquidity(liquidity *big.Int, tick, tickLower, tickUpper int32) (amount0, amount1 *big.Int, err error) {
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, nil, fmt.Errorf("liquidity %v: %w", liquidity, ErrNegativeLiquidity)
	}
	if liquidity.BitLen() > 128 {
		return nil, nil, fmt.Errorf("liquidity %v exceeds 128 bits: %w", liquidity, ErrOverflow)
	}
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("tick range [%d, %d) is empty: %w", tickLower, tickUpper, ErrInvalidRange)
	}

	sqrtLower, err := GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, fmt.Errorf("lower bound: %w", err)
	}
	sqrtUpper, err := GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, fmt.Errorf("upper bound: %w", err)
	}

	switch {
	case tick <= tickLower:
		return amount0Between(liquidity, sqrtLower, sqrtUpper), new(big.Int), nil
	case tick >= tickUpper:
		return new(big.Int), amount1Between(liquidity, sqrtLower, sqrtUpper), nil
	default:
		sqrtCurrent, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			return nil, nil, fmt.Errorf("current tick: %w", err)
		}
		amount0 = amount0Between(liquidity, sqrtCurrent, sqrtUpper)
		amount1 = amount1Between(liquidity, sqrtLower, sqrtCurrent)
		return amount0, amount1, nil
	}
}

// amount0Between is liquidity * (sqrtB - sqrtA) * 2^96 / (sqrtA * sqrtB)
// for sqrtA < sqrtB.
func amount0Between(liquidity, sqrtA, sqrtB *big.Int) *big.Int {
	num := new(big.Int).Sub(sqrtB, sqrtA)
	num.Mul(num, liquidity)
	num.Lsh(num, 96)
	den := new(big.Int).Mul(sqrtA, sqrtB)
	return num.Div(num, den)
}

// amount1Between is liquidity * (sqrtB - sqrtA) / 2^96 for sqrtA < sqrtB.
func amount1Between(liquidity, sqrtA, sqrtB *big.Int) *big.Int {
	num := new(big.Int).Sub(sqrtB, sqrtA)
	num.Mul(num, liquidity)
	return num.Rsh(num, 96)
}

// PositionValue values a position in quote-token minor units at the given
// tick and price. The base-token leg converts at price (quote minor units
// per whole base token), the quote leg is added as is.
func PositionValue(liquidity *big.Int, tick, tickLower, tickUpper int32, price *big.Int, baseIsToken0 bool, baseDecimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("price must be positive, got %v: %w", price, ErrInvalidPrice)
	}
	amount0, amount1, err := GetAmountsForLiquidity(liquidity, tick, tickLower, tickUpper)
	if err != nil {
		return nil, err
	}

	baseAmount, quoteAmount := amount0, amount1
	if !baseIsToken0 {
		baseAmount, quoteAmount = amount1, amount0
	}

	value := new(big.Int).Mul(baseAmount, price)
	value.Div(value, pow10(baseDecimals))
	return value.Add(value, quoteAmount), nil
}
