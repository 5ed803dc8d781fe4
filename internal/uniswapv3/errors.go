package uniswapv3

import "errors"

// Validation errors returned by the fixed-point math. All of them mark
// malformed input, never a transient condition; callers match with errors.Is.
var (
	ErrInvalidTick       = errors.New("invalid tick")
	ErrInvalidSqrtRatio  = errors.New("invalid sqrt ratio")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidRange      = errors.New("invalid tick range")
	ErrNegativeLiquidity = errors.New("negative liquidity")
	ErrOverflow          = errors.New("value overflows fixed-point bounds")
)
