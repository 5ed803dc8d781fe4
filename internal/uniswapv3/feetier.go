package uniswapv3

import "fmt"

// Fee tiers deployed by the factory, in hundredths of a basis point.
const (
	FeeTier100   uint32 = 100
	FeeTier500   uint32 = 500
	FeeTier3000  uint32 = 3000
	FeeTier10000 uint32 = 10000
)

// TickSpacingForFee returns the tick spacing enabled for a fee tier.
// Position bounds and initialized ticks must be multiples of this spacing.
func TickSpacingForFee(fee uint32) (int32, error) {
	switch fee {
	case FeeTier100:
		return 1, nil
	case FeeTier500:
		return 10, nil
	case FeeTier3000:
		return 60, nil
	case FeeTier10000:
		return 200, nil
	}
	return 0, fmt.Errorf("unknown fee tier %d", fee)
}
