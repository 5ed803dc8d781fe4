package valuation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/position"
)

// ParseAddress validates and converts one hex address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// SnapshotFromPosition builds the math-layer snapshot from a stored position
// and the chain-resolved token facts. Decimal strings are parsed here and
// nowhere downstream.
func SnapshotFromPosition(p model.Position, baseDecimals, quoteDecimals uint8, baseIsToken0 bool) (position.Snapshot, error) {
	liquidity, err := parseBigInt(p.Liquidity)
	if err != nil {
		return position.Snapshot{}, fmt.Errorf("position %s liquidity: %w", p.ID, err)
	}
	initial, err := parseBigInt(p.InitialValue)
	if err != nil {
		return position.Snapshot{}, fmt.Errorf("position %s initial value: %w", p.ID, err)
	}

	snap := position.Snapshot{
		Liquidity:     liquidity,
		TickLower:     p.TickLower,
		TickUpper:     p.TickUpper,
		BaseIsToken0:  baseIsToken0,
		BaseDecimals:  baseDecimals,
		QuoteDecimals: quoteDecimals,
		InitialValue:  initial,
	}
	if err := snap.Validate(); err != nil {
		return position.Snapshot{}, fmt.Errorf("position %s: %w", p.ID, err)
	}
	return snap, nil
}

// CollectedFees parses the optional fee credit; nil when unset.
func CollectedFees(p model.Position) (*big.Int, error) {
	if p.CollectedFees == "" {
		return nil, nil
	}
	fees, err := parseBigInt(p.CollectedFees)
	if err != nil {
		return nil, fmt.Errorf("position %s collected fees: %w", p.ID, err)
	}
	return fees, nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
