package position

import (
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

// curveIntervals is the number of sampling intervals; the curve carries one
// point more than that.
const curveIntervals = 25

// Phase tags a curve point relative to the position's price range.
type Phase string

const (
	PhaseBelow   Phase = "below"
	PhaseInRange Phase = "in-range"
	PhaseAbove   Phase = "above"
)

// CurvePoint is one display-layer sample of the price/PnL curve.
type CurvePoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
	Phase Phase   `json:"phase"`
}

// RangeIndices locates the curve points closest to the position's bounds.
type RangeIndices struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// CurveData is the full chart payload. It is produced in one call and never
// mutated afterwards.
type CurveData struct {
	Points            []CurvePoint `json:"points"`
	PriceRange        [2]float64   `json:"price_range"`
	PnLRange          [2]float64   `json:"pnl_range"`
	CurrentPriceIndex int          `json:"current_price_index"`
	RangeIndices      RangeIndices `json:"range_indices"`
	LowerPrice        float64      `json:"lower_price"`
	UpperPrice        float64      `json:"upper_price"`
	CurrentPrice      float64      `json:"current_price"`
}

// CurveGenerator samples a position's PnL across a padded price range.
type CurveGenerator struct {
	logger *zap.Logger
}

func NewCurveGenerator(logger *zap.Logger) *CurveGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurveGenerator{logger: logger}
}

// Generate samples the PnL curve over the position's price range padded by
// 20% on both sides. Sampling runs entirely on integers; a sample whose
// valuation fails is kept with zero PnL and logged instead of aborting the
// curve. Floats appear only in the returned payload.
func (g *CurveGenerator) Generate(snap Snapshot, currentPrice *big.Int) (*CurveData, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if currentPrice == nil || currentPrice.Sign() <= 0 {
		return nil, fmt.Errorf("current price must be positive, got %v: %w", currentPrice, uniswapv3.ErrInvalidPrice)
	}

	lowerPrice, upperPrice, err := rangePrices(snap)
	if err != nil {
		return nil, err
	}

	buffer := new(big.Int).Sub(upperPrice, lowerPrice)
	buffer.Div(buffer, big.NewInt(5))

	// The lower pad must not reach zero or negative prices.
	minPrice := new(big.Int).Sub(lowerPrice, buffer)
	halfLower := new(big.Int).Div(lowerPrice, big.NewInt(2))
	if minPrice.Cmp(halfLower) < 0 {
		minPrice = halfLower
	}
	maxPrice := new(big.Int).Add(upperPrice, buffer)
	span := new(big.Int).Sub(maxPrice, minPrice)

	prices := make([]*big.Int, 0, curveIntervals+1)
	pnls := make([]*big.Int, 0, curveIntervals+1)
	phases := make([]Phase, 0, curveIntervals+1)

	closestCurrent := newClosestTracker(currentPrice)
	closestLower := newClosestTracker(lowerPrice)
	closestUpper := newClosestTracker(upperPrice)

	for i := 0; i <= curveIntervals; i++ {
		price := new(big.Int).Mul(span, big.NewInt(int64(i)))
		price.Div(price, big.NewInt(curveIntervals))
		price.Add(price, minPrice)

		pnl, err := PnLAt(snap, price)
		if err != nil {
			g.logger.Warn("curve sample valuation failed",
				zap.Int("index", i),
				zap.String("price", price.String()),
				zap.Error(err),
			)
			pnl = new(big.Int)
		}

		phase := PhaseInRange
		if price.Cmp(lowerPrice) < 0 {
			phase = PhaseBelow
		} else if price.Cmp(upperPrice) > 0 {
			phase = PhaseAbove
		}

		closestCurrent.observe(i, price)
		closestLower.observe(i, price)
		closestUpper.observe(i, price)

		prices = append(prices, price)
		pnls = append(pnls, pnl)
		phases = append(phases, phase)
	}

	// Display conversion happens only here, after all integer math is done.
	quoteScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(snap.QuoteDecimals)), nil)
	points := make([]CurvePoint, len(prices))
	var priceRange, pnlRange [2]float64
	for i := range prices {
		point := CurvePoint{
			Price: toFloat(prices[i], quoteScale),
			PnL:   toFloat(pnls[i], quoteScale),
			Phase: phases[i],
		}
		points[i] = point
		if i == 0 {
			priceRange = [2]float64{point.Price, point.Price}
			pnlRange = [2]float64{point.PnL, point.PnL}
			continue
		}
		if point.Price < priceRange[0] {
			priceRange[0] = point.Price
		}
		if point.Price > priceRange[1] {
			priceRange[1] = point.Price
		}
		if point.PnL < pnlRange[0] {
			pnlRange[0] = point.PnL
		}
		if point.PnL > pnlRange[1] {
			pnlRange[1] = point.PnL
		}
	}

	return &CurveData{
		Points:            points,
		PriceRange:        priceRange,
		PnLRange:          pnlRange,
		CurrentPriceIndex: closestCurrent.index,
		RangeIndices:      RangeIndices{Lower: closestLower.index, Upper: closestUpper.index},
		LowerPrice:        toFloat(lowerPrice, quoteScale),
		UpperPrice:        toFloat(upperPrice, quoteScale),
		CurrentPrice:      toFloat(currentPrice, quoteScale),
	}, nil
}

// rangePrices returns the quote prices of the two range bounds ordered low
// to high. The tick order flips in price space when the base is token1.
func rangePrices(snap Snapshot) (*big.Int, *big.Int, error) {
	lowerRatio, err := uniswapv3.GetSqrtRatioAtTick(snap.TickLower)
	if err != nil {
		return nil, nil, fmt.Errorf("lower bound: %w", err)
	}
	upperRatio, err := uniswapv3.GetSqrtRatioAtTick(snap.TickUpper)
	if err != nil {
		return nil, nil, fmt.Errorf("upper bound: %w", err)
	}

	atLower, err := uniswapv3.PriceAtSqrtRatio(lowerRatio, snap.BaseIsToken0, snap.BaseDecimals)
	if err != nil {
		return nil, nil, fmt.Errorf("lower bound: %w", err)
	}
	atUpper, err := uniswapv3.PriceAtSqrtRatio(upperRatio, snap.BaseIsToken0, snap.BaseDecimals)
	if err != nil {
		return nil, nil, fmt.Errorf("upper bound: %w", err)
	}

	if atLower.Cmp(atUpper) > 0 {
		return atUpper, atLower, nil
	}
	return atLower, atUpper, nil
}

// closestTracker keeps the index of the sample closest to a target price.
// Strict comparison keeps the first-seen index on ties.
type closestTracker struct {
	target   *big.Int
	bestDiff *big.Int
	index    int
}

func newClosestTracker(target *big.Int) *closestTracker {
	return &closestTracker{target: target}
}

func (c *closestTracker) observe(index int, price *big.Int) {
	diff := new(big.Int).Sub(price, c.target)
	diff.Abs(diff)
	if c.bestDiff == nil || diff.Cmp(c.bestDiff) < 0 {
		c.bestDiff = diff
		c.index = index
	}
}

func toFloat(value, scale *big.Int) float64 {
	f, _ := new(big.Rat).SetFrac(value, scale).Float64()
	return f
}
