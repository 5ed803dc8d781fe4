package main

import (
	"context"
	"encoding/json"
	"fmt"
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
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/storage"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/valuation"
)

func runCurve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCurve(cfgFile, cmd.Flags())
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

	var sink storage.ReportSink
	if cfg.Out != "" {
		sink = storage.NewJsonlReportSink(cfg.Out)
	}

	reader := dex.NewReader(chainClient, logger)
	source := oracle.NewCachingSource(oracle.NewChainSource(reader, logger), nil, logger)

	svc := valuation.NewService(valuation.Config{
		Positions:     []model.Position{position},
		WithCurve:     true,
		PriceOverride: priceOverride,
		BlockNumber:   cfg.Block,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
	}, nil, sink, reader, source, logger)

	logger.Info("curve start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("position", position.ID),
		zap.Uint64("block", cfg.Block),
		zap.String("out", cfg.Out),
	)

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if sink != nil || len(result.Reports) == 0 {
		return nil
	}

	pretty, err := json.MarshalIndent(result.Reports[0].Curve, "", "  ")
	if err != nil {
		return fmt.Errorf("encode curve: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(pretty))
	return nil
}
