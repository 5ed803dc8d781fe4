package valuation

import (
	"errors"
	"testing"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/uniswapv3"
)

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress("  0x82aF49447D8a07e3bd95BD0d56f35241523fBab1 ")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if got != testWETH {
		t.Fatalf("got %s, want %s", got.Hex(), testWETH.Hex())
	}

	for _, bad := range []string{"", "weth", "0x123", "82aF49447D8a07e3bd95BD0d56f35241523fBab1x"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Fatalf("ParseAddress(%q): expected error", bad)
		}
	}
}

func TestSnapshotFromPosition(t *testing.T) {
	p := aboveRangePosition()

	snap, err := SnapshotFromPosition(p, 18, 6, true)
	if err != nil {
		t.Fatalf("SnapshotFromPosition: %v", err)
	}
	if snap.Liquidity.String() != p.Liquidity {
		t.Fatalf("liquidity = %s, want %s", snap.Liquidity, p.Liquidity)
	}
	if snap.InitialValue.String() != p.InitialValue {
		t.Fatalf("initial = %s, want %s", snap.InitialValue, p.InitialValue)
	}
	if snap.TickLower != p.TickLower || snap.TickUpper != p.TickUpper {
		t.Fatalf("range = [%d, %d]", snap.TickLower, snap.TickUpper)
	}
	if !snap.BaseIsToken0 || snap.BaseDecimals != 18 || snap.QuoteDecimals != 6 {
		t.Fatalf("ordering/decimals = %v/%d/%d", snap.BaseIsToken0, snap.BaseDecimals, snap.QuoteDecimals)
	}
}

func TestSnapshotFromPositionRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Position)
		want   error
	}{
		{name: "bad liquidity digits", mutate: func(p *model.Position) { p.Liquidity = "12x4" }},
		{name: "bad initial digits", mutate: func(p *model.Position) { p.InitialValue = "five" }},
		{name: "inverted range", mutate: func(p *model.Position) { p.TickLower, p.TickUpper = p.TickUpper, p.TickLower }, want: uniswapv3.ErrInvalidRange},
		{name: "negative liquidity", mutate: func(p *model.Position) { p.Liquidity = "-1" }, want: uniswapv3.ErrNegativeLiquidity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := aboveRangePosition()
			tc.mutate(&p)
			_, err := SnapshotFromPosition(p, 18, 6, true)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCollectedFees(t *testing.T) {
	p := aboveRangePosition()

	fees, err := CollectedFees(p)
	if err != nil {
		t.Fatalf("CollectedFees: %v", err)
	}
	if fees != nil {
		t.Fatalf("fees = %v, want nil when unset", fees)
	}

	p.CollectedFees = "25000000"
	fees, err = CollectedFees(p)
	if err != nil {
		t.Fatalf("CollectedFees: %v", err)
	}
	if fees.String() != "25000000" {
		t.Fatalf("fees = %s, want 25000000", fees)
	}

	p.CollectedFees = "25,000"
	if _, err := CollectedFees(p); err == nil {
		t.Fatal("expected error for bad digits")
	}
}
