package model

// PortfolioSummary aggregates valuation totals across the positions priced
// in one quote token. Positions with different quote tokens never share a
// summary row.
type PortfolioSummary struct {
	QuoteToken    string `json:"quote_token"`
	QuoteSymbol   string `json:"quote_symbol,omitempty"`
	QuoteDecimals uint8  `json:"quote_decimals"`
	Positions     int    `json:"positions"`
	TotalValue    string `json:"total_value"`
	TotalPnL      string `json:"total_pnl"`
	TotalInitial  string `json:"total_initial"`
}
