package valuation

import (
	"math/big"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

// portfolioAccumulator sums valuation totals for one quote token.
type portfolioAccumulator struct {
	quoteToken    string
	quoteSymbol   string
	quoteDecimals uint8
	positions     int
	totalValue    *big.Int
	totalPnL      *big.Int
	totalInitial  *big.Int
}

func newPortfolioAccumulator(quote model.TokenMeta) *portfolioAccumulator {
	return &portfolioAccumulator{
		quoteToken:    quote.Address,
		quoteSymbol:   quote.Symbol,
		quoteDecimals: quote.Decimals,
		totalValue:    big.NewInt(0),
		totalPnL:      big.NewInt(0),
		totalInitial:  big.NewInt(0),
	}
}

func (a *portfolioAccumulator) add(value, pnl, initial *big.Int) {
	a.positions++
	a.totalValue.Add(a.totalValue, value)
	a.totalPnL.Add(a.totalPnL, pnl)
	a.totalInitial.Add(a.totalInitial, initial)
}

func (a *portfolioAccumulator) summary() model.PortfolioSummary {
	return model.PortfolioSummary{
		QuoteToken:    a.quoteToken,
		QuoteSymbol:   a.quoteSymbol,
		QuoteDecimals: a.quoteDecimals,
		Positions:     a.positions,
		TotalValue:    a.totalValue.String(),
		TotalPnL:      a.totalPnL.String(),
		TotalInitial:  a.totalInitial.String(),
	}
}

func (a *portfolioAccumulator) displayName() string {
	if a.quoteSymbol != "" {
		return a.quoteSymbol
	}
	return a.quoteToken
}
