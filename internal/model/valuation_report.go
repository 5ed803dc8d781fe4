package model

import "encoding/json"

// ValuationReport is the JSON representation of one valuation run for one
// position. The curve payload is kept as raw JSON so sinks pass it through
// without re-encoding.
type ValuationReport struct {
	PositionID  string          `json:"position_id"`
	ChainID     uint64          `json:"chain_id"`
	Pool        string          `json:"pool"`
	Timestamp   uint64          `json:"timestamp"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	Price       string          `json:"price"`
	Tick        int32           `json:"tick"`
	Value       string          `json:"value"`
	PnL         string          `json:"pnl"`
	BreakEven   string          `json:"break_even,omitempty"`
	Curve       json.RawMessage `json:"curve,omitempty"`
	PoolMeta    PoolMeta        `json:"pool_meta"`
	Base        TokenMeta       `json:"base"`
	Quote       TokenMeta       `json:"quote"`
}
