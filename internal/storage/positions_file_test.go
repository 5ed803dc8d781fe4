package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
)

func TestFilePositionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	store := NewFilePositionStore(path)
	ctx := context.Background()

	loaded, err := store.LoadPositions(ctx)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("missing file loaded %d positions, want 0", len(loaded))
	}

	positions := []model.Position{
		{
			ID:           "arb-weth-usdc-1",
			ChainID:      42161,
			Pool:         "0xC6962004f452bE9203591991D15f6b388e09E8D0",
			BaseToken:    "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
			QuoteToken:   "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			TickLower:    -192660,
			TickUpper:    -192480,
			Liquidity:    "1000000000000000000",
			InitialValue: "5000000000",
		},
		{
			ID:            "arb-weth-usdc-2",
			ChainID:       42161,
			Pool:          "0xC6962004f452bE9203591991D15f6b388e09E8D0",
			BaseToken:     "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
			QuoteToken:    "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			TickLower:     -276320,
			TickUpper:     -276200,
			Liquidity:     "1000000000000000",
			InitialValue:  "1000000000",
			CollectedFees: "25000000",
			OpenedAt:      "2026-05-01T00:00:00Z",
		},
	}
	if err := store.SavePositions(ctx, positions); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err = store.LoadPositions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, positions) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, positions)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind (stat err %v)", err)
	}
}

func TestFilePositionStoreRejectsDirectory(t *testing.T) {
	store := NewFilePositionStore(t.TempDir())
	if _, err := store.LoadPositions(context.Background()); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestFilePositionStoreRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFilePositionStore(path)
	if _, err := store.LoadPositions(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFilePositionStoreEmptyPath(t *testing.T) {
	store := NewFilePositionStore("")
	if _, err := store.LoadPositions(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
	if err := store.SavePositions(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}
