// Package uniswapv3 implements the Uniswap V3 fixed-point price and
// liquidity math on arbitrary-precision integers: tick to sqrt-ratio
// conversion and its inverse, tick/price conversion honoring token ordering
// and decimals, and token amounts held by a liquidity range. All
// computation stays on big.Int; nothing here touches floating point.
package uniswapv3

import (
	"fmt"
	"math/big"
)

// Tick bounds of the protocol. Prices outside 1.0001^±887272 are not
// representable on chain.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the sqrt ratio at MinTick.
	MinSqrtRatio = big.NewInt(4295128739)
	// MaxSqrtRatio is the sqrt ratio at MaxTick.
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	mask32     = new(big.Int).SetUint64(0xffffffff)

	// sqrt(1.0001^-2^i) for i = 0..19, Q128. The running product of the
	// entries selected by the set bits of |tick| yields sqrt(1.0001^-|tick|).
	tickMultipliers = []*big.Int{
		mustHex("fffcb933bd6fad37aa2d162d1a594001"),
		mustHex("fff97272373d413259a46990580e213a"),
		mustHex("fff2e50f5f656932ef12357cf3c7fdcc"),
		mustHex("ffe5caca7e10e4e61c3624eaa0941cd0"),
		mustHex("ffcb9843d60f6159c9db58835c926644"),
		mustHex("ff973b41fa98c081472e6896dfb254c0"),
		mustHex("ff2ea16466c96a3843ec78b326b52861"),
		mustHex("fe5dee046a99a2a811c461f1969c3053"),
		mustHex("fcbe86c7900a88aedcffc83b479aa3a4"),
		mustHex("f987a7253ac413176f2b074cf7815e54"),
		mustHex("f3392b0822b70005940c7a398e4b70f3"),
		mustHex("e7159475a2c29b7443b29c7fa6e889d9"),
		mustHex("d097f3bdfd2022b8845ad8f792aa5825"),
		mustHex("a9f746462d870fdf8a65dc1f90e061e5"),
		mustHex("70d869a156d2a1b890bb3df62baf32f7"),
		mustHex("31be135f97d08fd981231505542fcfa6"),
		mustHex("9aa508b5b7a84e1c677de54f3e99bc9"),
		mustHex("5d6af8dedb81196699c329225ee604"),
		mustHex("2216e584f5fa1ea926041bedfe98"),
		mustHex("48a170391f7dc42444e8fa2"),
	}

	// Q64.64 constants of the inverse: log base conversion factor
	// 2^128 / log2(sqrt(1.0001)) style and the error margins bounding the
	// low/high candidate ticks.
	logSqrt10001   = mustBig("255738958999603826347141")
	tickLowMargin  = mustBig("3402992956809132418596140100660247210")
	tickHighMargin = mustBig("291339464771989622907027621153398088495")
)

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic(fmt.Sprintf("bad hex constant %q", s))
	}
	return n
}

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("bad integer constant %q", s))
	}
	return n
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as an unsigned
// integer in the 160-bit range. The bit chain reproduces the canonical
// on-chain computation exactly, including the rounding of the final shift,
// so results stay consistent with pool state read from chain.
func GetSqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d outside [%d, %d]: %w", tick, MinTick, MaxTick, ErrInvalidTick)
	}

	absTick := uint64(tick)
	if tick < 0 {
		absTick = uint64(-int64(tick))
	}

	ratio := new(big.Int)
	if absTick&1 != 0 {
		ratio.Set(tickMultipliers[0])
	} else {
		ratio.Lsh(big.NewInt(1), 128)
	}
	for i := 1; i < len(tickMultipliers); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, tickMultipliers[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 down to Q96, rounding up. Sub-2^-96 dust must round toward the
	// ratio actually used on chain.
	rem := new(big.Int).And(ratio, mask32)
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio does not
// exceed sqrtRatioX96. The tick is estimated from the binary logarithm of
// the input (integer part from the bit length, fractional part from
// fourteen squaring refinements), converted into tick scale, and then
// corrected against the exact forward computation of the candidate ticks.
//
// Unlike the on-chain library the upper bound is inclusive, so the ratio at
// MaxTick resolves to MaxTick instead of being rejected.
func GetTickAtSqrtRatio(sqrtRatioX96 *big.Int) (int32, error) {
	if sqrtRatioX96 == nil || sqrtRatioX96.Cmp(MinSqrtRatio) < 0 || sqrtRatioX96.Cmp(MaxSqrtRatio) > 0 {
		return 0, fmt.Errorf("sqrt ratio %v outside valid bounds: %w", sqrtRatioX96, ErrInvalidSqrtRatio)
	}

	ratio := new(big.Int).Lsh(sqrtRatioX96, 32)
	msb := ratio.BitLen() - 1

	r := new(big.Int)
	if msb >= 128 {
		r.Rsh(ratio, uint(msb-127))
	} else {
		r.Lsh(ratio, uint(127-msb))
	}

	// log2 of the Q128 ratio as a signed Q64.64 value.
	log2 := big.NewInt(int64(msb) - 128)
	log2.Lsh(log2, 64)

	for bit := 63; bit >= 50; bit-- {
		r.Mul(r, r)
		r.Rsh(r, 127)
		if r.BitLen() > 128 {
			log2.Add(log2, new(big.Int).Lsh(big.NewInt(1), uint(bit)))
			r.Rsh(r, 1)
		}
	}

	logTick := new(big.Int).Mul(log2, logSqrt10001)

	tickLow := new(big.Int).Sub(logTick, tickLowMargin)
	tickLow.Rsh(tickLow, 128)
	tickHigh := new(big.Int).Add(logTick, tickHighMargin)
	tickHigh.Rsh(tickHigh, 128)

	low := int32(tickLow.Int64())
	high := int32(tickHigh.Int64())
	if low == high {
		return low, nil
	}
	if high > MaxTick {
		// The answer is the greatest tick with ratio <= input, which cannot
		// sit beyond MaxTick for an in-bounds input.
		return low, nil
	}

	highRatio, err := GetSqrtRatioAtTick(high)
	if err != nil {
		return 0, err
	}
	if highRatio.Cmp(sqrtRatioX96) <= 0 {
		return high, nil
	}
	return low, nil
}
