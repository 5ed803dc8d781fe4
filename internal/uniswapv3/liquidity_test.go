package uniswapv3

import (
	"errors"
	"math/big"
	"testing"
)

var testLiquidity = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func TestAmountsAtRangeBoundaries(t *testing.T) {
	lower, upper := int32(-192600), int32(-192540)

	amount0, amount1, err := GetAmountsForLiquidity(testLiquidity, lower, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount1.Sign() != 0 {
		t.Fatalf("amount1 at lower bound should be zero, got %s", amount1)
	}
	if amount0.Sign() <= 0 {
		t.Fatalf("amount0 at lower bound should be positive, got %s", amount0)
	}

	amount0, amount1, err = GetAmountsForLiquidity(testLiquidity, upper, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() != 0 {
		t.Fatalf("amount0 at upper bound should be zero, got %s", amount0)
	}
	if amount1.Sign() <= 0 {
		t.Fatalf("amount1 at upper bound should be positive, got %s", amount1)
	}
}

func TestAmountsOutsideRangeMatchBoundary(t *testing.T) {
	lower, upper := int32(-192600), int32(-192540)

	atLower0, _, err := GetAmountsForLiquidity(testLiquidity, lower, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	below0, below1, err := GetAmountsForLiquidity(testLiquidity, lower-6000, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if below0.Cmp(atLower0) != 0 {
		t.Fatalf("amount0 below range should match the lower bound: %s != %s", below0, atLower0)
	}
	if below1.Sign() != 0 {
		t.Fatalf("amount1 below range should be zero, got %s", below1)
	}

	_, atUpper1, err := GetAmountsForLiquidity(testLiquidity, upper, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	above0, above1, err := GetAmountsForLiquidity(testLiquidity, upper+6000, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if above1.Cmp(atUpper1) != 0 {
		t.Fatalf("amount1 above range should match the upper bound: %s != %s", above1, atUpper1)
	}
	if above0.Sign() != 0 {
		t.Fatalf("amount0 above range should be zero, got %s", above0)
	}
}

func TestAmountsInRange(t *testing.T) {
	lower, upper := int32(-192600), int32(-192540)
	tick := int32(-192570)

	amount0, amount1, err := GetAmountsForLiquidity(testLiquidity, tick, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		t.Fatalf("in-range position should hold both tokens, got %s / %s", amount0, amount1)
	}

	full0, _, err := GetAmountsForLiquidity(testLiquidity, lower, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, full1, err := GetAmountsForLiquidity(testLiquidity, upper, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Cmp(full0) >= 0 {
		t.Fatalf("in-range amount0 %s should be below the all-token0 amount %s", amount0, full0)
	}
	if amount1.Cmp(full1) >= 0 {
		t.Fatalf("in-range amount1 %s should be below the all-token1 amount %s", amount1, full1)
	}
}

func TestAmountsZeroLiquidity(t *testing.T) {
	amount0, amount1, err := GetAmountsForLiquidity(big.NewInt(0), -192570, -192600, -192540)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() != 0 || amount1.Sign() != 0 {
		t.Fatalf("zero liquidity should hold nothing, got %s / %s", amount0, amount1)
	}
}

func TestAmountsRejectBadInputs(t *testing.T) {
	if _, _, err := GetAmountsForLiquidity(testLiquidity, 0, 100, 100); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty range, got %v", err)
	}
	if _, _, err := GetAmountsForLiquidity(testLiquidity, 0, 200, 100); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
	if _, _, err := GetAmountsForLiquidity(big.NewInt(-1), 0, -100, 100); !errors.Is(err, ErrNegativeLiquidity) {
		t.Fatalf("expected ErrNegativeLiquidity, got %v", err)
	}

	tooWide := new(big.Int).Lsh(big.NewInt(1), 129)
	if _, _, err := GetAmountsForLiquidity(tooWide, 0, -100, 100); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for 129-bit liquidity, got %v", err)
	}

	if _, _, err := GetAmountsForLiquidity(testLiquidity, 0, MinTick-1, 100); !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("expected ErrInvalidTick for out-of-range lower bound, got %v", err)
	}
}

func TestPositionValueConvertsBaseLeg(t *testing.T) {
	lower, upper := int32(-192600), int32(-192540)
	price := big.NewInt(4327_480000)

	// Below range with base as token0 the position is all base; its value
	// must equal amount0 * price / 10^baseDecimals exactly.
	amount0, _, err := GetAmountsForLiquidity(testLiquidity, lower, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(big.Int).Mul(amount0, price)
	want.Div(want, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

	got, err := PositionValue(testLiquidity, lower, lower, upper, price, true, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Fatalf("below-range value mismatch: %s != %s", got, want)
	}

	// Above range with base as token0 the position is all quote; the price
	// must not enter the value at all.
	_, amount1, err := GetAmountsForLiquidity(testLiquidity, upper, lower, upper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = PositionValue(testLiquidity, upper, lower, upper, price, true, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(amount1) != 0 {
		t.Fatalf("above-range value mismatch: %s != %s", got, amount1)
	}
}

func TestPositionValueRejectsBadPrice(t *testing.T) {
	if _, err := PositionValue(testLiquidity, 0, -100, 100, big.NewInt(0), true, 18); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := PositionValue(testLiquidity, 0, -100, 100, nil, true, 18); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for nil price, got %v", err)
	}
}
