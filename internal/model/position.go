package model

// Position is a stored liquidity position with its opening cost basis.
// Big-integer quantities travel as decimal strings and are parsed only at
// the point of computation.
type Position struct {
	ID            string `json:"id"`
	ChainID       uint64 `json:"chain_id"`
	Pool          string `json:"pool"`
	BaseToken     string `json:"base_token"`
	QuoteToken    string `json:"quote_token"`
	TickLower     int32  `json:"tick_lower"`
	TickUpper     int32  `json:"tick_upper"`
	Liquidity     string `json:"liquidity"`
	InitialValue  string `json:"initial_value"`
	CollectedFees string `json:"collected_fees,omitempty"`
	OpenedAt      string `json:"opened_at,omitempty"`
}
