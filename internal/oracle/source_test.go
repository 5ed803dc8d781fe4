package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

var (
	testPool = common.HexToAddress("0xC6962004f452bE9203591991D15f6b388e09E8D0")
	testWETH = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	testUSDC = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
)

type fakeStates struct {
	state model.PoolState
	err   error

	gotPool  common.Address
	gotBlock uint64
}

func (f *fakeStates) PoolState(ctx context.Context, pool common.Address, blockNumber uint64) (model.PoolState, error) {
	f.gotPool = pool
	f.gotBlock = blockNumber
	return f.state, f.err
}

func TestChainSourceQuotesFromSlot0(t *testing.T) {
	states := &fakeStates{state: model.PoolState{
		SqrtPriceX96: "5211915345268226134615181",
		Tick:         -192593,
		Liquidity:    "1424012629389894530",
		BlockNumber:  123,
	}}
	source := NewChainSource(states, nil)

	quote, err := source.QuoteAt(context.Background(), QuoteRequest{
		Pool:         testPool,
		Base:         testWETH,
		Quote:        testUSDC,
		BaseDecimals: 18,
		BlockNumber:  123,
	})
	if err != nil {
		t.Fatalf("QuoteAt: %v", err)
	}

	if states.gotPool != testPool || states.gotBlock != 123 {
		t.Fatalf("read %s@%d, want %s@123", states.gotPool.Hex(), states.gotBlock, testPool.Hex())
	}
	if got := quote.Price.String(); got != "4327484675" {
		t.Fatalf("price = %s, want 4327484675", got)
	}
	if quote.SqrtPriceX96.String() != states.state.SqrtPriceX96 {
		t.Fatalf("sqrt price = %s, want %s", quote.SqrtPriceX96, states.state.SqrtPriceX96)
	}
	if quote.Tick != -192593 {
		t.Fatalf("tick = %d, want -192593", quote.Tick)
	}
	if quote.BlockNumber != 123 {
		t.Fatalf("block = %d, want 123", quote.BlockNumber)
	}
	if quote.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", quote.Confidence)
	}
	if quote.At.IsZero() {
		t.Fatal("quote timestamp not set")
	}
}

func TestChainSourceRejectsBadSqrtString(t *testing.T) {
	states := &fakeStates{state: model.PoolState{SqrtPriceX96: "not-a-number"}}
	source := NewChainSource(states, nil)

	if _, err := source.QuoteAt(context.Background(), QuoteRequest{Pool: testPool, Base: testWETH, Quote: testUSDC, BaseDecimals: 18}); err == nil {
		t.Fatal("expected error for unparseable sqrt price")
	}
}

func TestChainSourcePropagatesReadError(t *testing.T) {
	readErr := errors.New("rpc timeout")
	source := NewChainSource(&fakeStates{err: readErr}, nil)

	_, err := source.QuoteAt(context.Background(), QuoteRequest{Pool: testPool, Base: testWETH, Quote: testUSDC, BaseDecimals: 18})
	if !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want wrapped %v", err, readErr)
	}
}

func TestQuoteRequestCacheKey(t *testing.T) {
	base := QuoteRequest{Pool: testPool, Base: testWETH, Quote: testUSDC, BaseDecimals: 18, BlockNumber: 5}

	flipped := base
	flipped.Base, flipped.Quote = base.Quote, base.Base
	if base.CacheKey() == flipped.CacheKey() {
		t.Fatal("flipped base/quote must key differently")
	}

	otherBlock := base
	otherBlock.BlockNumber = 6
	if base.CacheKey() == otherBlock.CacheKey() {
		t.Fatal("distinct blocks must key differently")
	}

	same := QuoteRequest{Pool: testPool, Base: testWETH, Quote: testUSDC, BaseDecimals: 18, BlockNumber: 5}
	if base.CacheKey() != same.CacheKey() {
		t.Fatal("identical requests must share a key")
	}
}
