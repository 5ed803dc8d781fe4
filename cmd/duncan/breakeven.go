package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/chain"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/config"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/dex"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/oracle"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/valuation"
)

func runBreakEven(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBreakEven(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	priceOverride, err := parsePrice(cfg.Price)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, _, closeStore, err := buildPositionStore(ctx, cfg.PGDSN, cfg.PositionsFile)
	if err != nil {
		return err
	}
	defer closeStore()

	position, err := selectPosition(ctx, store, cfg.Position)
	if err != nil {
		return err
	}
	if err := fillChainID(ctx, chainClient, &position); err != nil {
		return err
	}

	reader := dex.NewReader(chainClient, logger)
	source := oracle.NewCachingSource(oracle.NewChainSource(reader, logger), nil, logger)

	svc := valuation.NewService(valuation.Config{
		Positions:     []model.Position{position},
		WithBreakEven: true,
		PriceOverride: priceOverride,
		BlockNumber:   cfg.Block,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, nil, nil, reader, source, logger)

	logger.Info("breakeven start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("position", position.ID),
		zap.Uint64("block", cfg.Block),
	)

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		return fmt.Errorf("no report produced for position %s", position.ID)
	}

	report := result.Reports[0]
	if report.BreakEven == "" {
		fmt.Fprintf(os.Stdout, "position %s has no break-even price: collected fees already cover the opening value\n", position.ID)
		return nil
	}

	breakEven, ok := new(big.Int).SetString(report.BreakEven, 10)
	if !ok {
		return fmt.Errorf("invalid break-even value: %s", report.BreakEven)
	}
	symbol := report.Quote.Symbol
	if symbol == "" {
		symbol = report.Quote.Address
	}
	fmt.Fprintf(os.Stdout, "break-even price for position %s: %s %s\n",
		position.ID, valuation.FormatAmount(breakEven, report.Quote.Decimals), symbol)
	return nil
}
