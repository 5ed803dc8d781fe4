package uniswapv3

import (
	"errors"
	"math/big"
	"testing"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big integer literal %q", s)
	}
	return n
}

func TestGetSqrtRatioAtTickGolden(t *testing.T) {
	got, err := GetSqrtRatioAtTick(-192593)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := bigFromString(t, "5211764907819518500435585")
	if got.Cmp(want) != 0 {
		t.Fatalf("sqrt ratio mismatch: %s != %s", got, want)
	}
}

func TestGetTickAtSqrtRatioObservedPoolPrice(t *testing.T) {
	// sqrtPriceX96 observed on an Arbitrum WETH/USDC pool while slot0
	// reported tick -192593. Pool prices sit between tick boundaries, so
	// the inverse must floor to the reported tick.
	ratio := bigFromString(t, "5211915345268226134615181")

	got, err := GetTickAtSqrtRatio(ratio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -192593 {
		t.Fatalf("tick mismatch: got %d, want -192593", got)
	}

	atTick, err := GetSqrtRatioAtTick(-192593)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := GetSqrtRatioAtTick(-192592)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratio.Cmp(atTick) < 0 || ratio.Cmp(next) >= 0 {
		t.Fatalf("observed ratio %s not inside bucket [%s, %s)", ratio, atTick, next)
	}
}

func TestGetSqrtRatioAtTickBounds(t *testing.T) {
	cases := []struct {
		tick int32
		want *big.Int
	}{
		{MinTick, MinSqrtRatio},
		{MaxTick, MaxSqrtRatio},
		{0, new(big.Int).Lsh(big.NewInt(1), 96)},
	}

	for _, tc := range cases {
		got, err := GetSqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if got.Cmp(tc.want) != 0 {
			t.Fatalf("tick %d: sqrt ratio mismatch: %s != %s", tc.tick, got, tc.want)
		}
	}
}

func TestGetSqrtRatioAtTickRejectsOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1, -1000000, 1000000} {
		if _, err := GetSqrtRatioAtTick(tick); !errors.Is(err, ErrInvalidTick) {
			t.Fatalf("tick %d: expected ErrInvalidTick, got %v", tick, err)
		}
	}
}

func TestSqrtRatioMonotonicInTick(t *testing.T) {
	ticks := []int32{MinTick, -500000, -192594, -192593, -1, 0, 1, 100000, 443636, MaxTick}

	prev, err := GetSqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("tick %d: unexpected error: %v", ticks[0], err)
	}
	for _, tick := range ticks[1:] {
		cur, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if prev.Cmp(cur) >= 0 {
			t.Fatalf("sqrt ratio not increasing at tick %d: %s >= %s", tick, prev, cur)
		}
		prev = cur
	}
}

func TestTickSqrtRatioRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -887271, -276320, -192593, -60, -1, 0, 1, 60, 192593, 276320, 887271, MaxTick}

	for _, tick := range ticks {
		ratio, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		got, err := GetTickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: inverse failed: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip mismatch: tick %d -> ratio %s -> tick %d", tick, ratio, got)
		}
	}
}

func TestGetTickAtSqrtRatioBetweenTicks(t *testing.T) {
	// A ratio strictly between two adjacent ticks must resolve to the lower
	// one: the greatest tick whose ratio does not exceed the input.
	for _, tick := range []int32{-192593, -1, 0, 100, 50000} {
		ratio, err := GetSqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		bumped := new(big.Int).Add(ratio, big.NewInt(1))
		got, err := GetTickAtSqrtRatio(bumped)
		if err != nil {
			t.Fatalf("tick %d: inverse failed: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("ratio between ticks resolved to %d, want %d", got, tick)
		}
	}
}

func TestGetTickAtSqrtRatioRejectsOutOfBounds(t *testing.T) {
	below := new(big.Int).Sub(MinSqrtRatio, big.NewInt(1))
	above := new(big.Int).Add(MaxSqrtRatio, big.NewInt(1))

	for _, ratio := range []*big.Int{below, above, big.NewInt(0)} {
		if _, err := GetTickAtSqrtRatio(ratio); !errors.Is(err, ErrInvalidSqrtRatio) {
			t.Fatalf("ratio %s: expected ErrInvalidSqrtRatio, got %v", ratio, err)
		}
	}
}
