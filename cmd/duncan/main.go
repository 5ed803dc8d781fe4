package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0xNedAlbo/duncan-ui-sub003/internal/chain"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/config"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/dex"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/model"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/oracle"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/storage"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/storage/postgres"
	"github.com/0xNedAlbo/duncan-ui-sub003/internal/valuation"
)

func main() {
	root := &cobra.Command{
		Use:          "duncan",
		Short:        "Uniswap V3 position valuation",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	valueCmd := &cobra.Command{
		Use:   "value",
		Short: "Value tracked positions at the current pool price",
		RunE:  runValue,
	}

	valueCmd.Flags().String("rpc", "", "chain RPC URL")
	valueCmd.Flags().String("positions", "./data/positions.json", "positions JSON file")
	valueCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the positions file)")
	valueCmd.Flags().StringSlice("ids", nil, "only value these position ids (comma-separated)")
	addPositionFlags(valueCmd)
	valueCmd.Flags().String("price", "", "value at this price instead of the pool quote (quote minor units)")
	valueCmd.Flags().Uint64("block", 0, "read pool state at this block, 0 means latest")
	valueCmd.Flags().Bool("with-curve", false, "include the PnL curve payload in reports")
	valueCmd.Flags().Bool("with-breakeven", false, "include the break-even price in reports")
	valueCmd.Flags().String("out", "", "append reports to this JSONL file instead of stdout")
	valueCmd.Flags().Duration("watch", 0, "re-value on this interval, 0 means one shot")
	valueCmd.Flags().Bool("save", false, "persist the merged position set to the store")
	valueCmd.Flags().Duration("cache-ttl", 5*time.Second, "quote cache TTL")
	valueCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	valueCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	valueCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(valueCmd)

	curveCmd := &cobra.Command{
		Use:   "curve",
		Short: "Generate the price/PnL curve payload for one position",
		RunE:  runCurve,
	}

	curveCmd.Flags().String("rpc", "", "chain RPC URL")
	curveCmd.Flags().String("positions", "./data/positions.json", "positions JSON file")
	curveCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the positions file)")
	addPositionFlags(curveCmd)
	curveCmd.Flags().String("price", "", "center the curve on this price instead of the pool quote")
	curveCmd.Flags().Uint64("block", 0, "read pool state at this block, 0 means latest")
	curveCmd.Flags().String("out", "", "append the report to this JSONL file instead of stdout")
	curveCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	curveCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	curveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(curveCmd)

	breakevenCmd := &cobra.Command{
		Use:   "breakeven",
		Short: "Solve the break-even price for one position",
		RunE:  runBreakEven,
	}

	breakevenCmd.Flags().String("rpc", "", "chain RPC URL")
	breakevenCmd.Flags().String("positions", "./data/positions.json", "positions JSON file")
	breakevenCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the positions file)")
	addPositionFlags(breakevenCmd)
	breakevenCmd.Flags().String("price", "", "solve from this price instead of the pool quote")
	breakevenCmd.Flags().Uint64("block", 0, "read pool state at this block, 0 means latest")
	breakevenCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	breakevenCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	breakevenCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(breakevenCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addPositionFlags registers the ad-hoc position flags every command accepts.
func addPositionFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "position id (selects a stored position, or names the ad-hoc one)")
	cmd.Flags().String("pool", "", "pool address for an ad-hoc position")
	cmd.Flags().String("base", "", "base token address")
	cmd.Flags().String("quote", "", "quote token address")
	cmd.Flags().Int("tick-lower", 0, "lower tick of the range")
	cmd.Flags().Int("tick-upper", 0, "upper tick of the range")
	cmd.Flags().String("liquidity", "", "position liquidity")
	cmd.Flags().String("initial-value", "", "opening value in quote minor units")
	cmd.Flags().String("collected-fees", "", "fees collected so far in quote minor units")
}

func runValue(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadValue(cfgFile, cmd.Flags())
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

	store, pgSink, closeStore, err := buildPositionStore(ctx, cfg.PGDSN, cfg.PositionsFile)
	if err != nil {
		return err
	}
	defer closeStore()

	var direct []model.Position
	if cfg.Position.Pool != "" {
		adhoc, err := positionFromSpec(cfg.Position)
		if err != nil {
			return err
		}
		if err := fillChainID(ctx, chainClient, &adhoc); err != nil {
			return err
		}
		direct = append(direct, adhoc)
	}

	// An explicit output file wins; otherwise reports persist to Postgres
	// when configured, and stdout is the fallback for one-shot runs.
	sink := pgSink
	if cfg.Out != "" {
		sink = storage.NewJsonlReportSink(cfg.Out)
	}

	reader := dex.NewReader(chainClient, logger)
	source := oracle.NewCachingSource(oracle.NewChainSource(reader, logger), oracle.NewQuoteCache(cfg.CacheTTL), logger)

	svc := valuation.NewService(valuation.Config{
		Positions:     direct,
		IDs:           cfg.IDs,
		WithCurve:     cfg.WithCurve,
		WithBreakEven: cfg.WithBreakEven,
		PriceOverride: priceOverride,
		BlockNumber:   cfg.Block,
		WatchInterval: cfg.Watch,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
		SavePositions: cfg.SavePositions,
	}, store, sink, reader, source, logger)

	logger.Info("value start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("positions", cfg.PositionsFile),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("direct_positions", len(direct)),
		zap.Uint64("block", cfg.Block),
		zap.Bool("with_curve", cfg.WithCurve),
		zap.Bool("with_breakeven", cfg.WithBreakEven),
		zap.Duration("watch", cfg.Watch),
		zap.String("out", cfg.Out),
	)

	if cfg.Watch > 0 {
		err := svc.Watch(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if sink == nil {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}

// buildPositionStore returns the configured store, plus a Postgres-backed
// report sink when a DSN is given. Store and sink are nil when nothing is
// configured.
func buildPositionStore(ctx context.Context, pgDSN, positionsFile string) (storage.PositionStore, storage.ReportSink, func(), error) {
	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, postgres.NewReportSink(store), store.Close, nil
	}
	if positionsFile != "" {
		return storage.NewFilePositionStore(positionsFile), nil, func() {}, nil
	}
	return nil, nil, func() {}, nil
}

func positionFromSpec(spec config.PositionSpec) (model.Position, error) {
	if spec.BaseToken == "" || spec.QuoteToken == "" {
		return model.Position{}, fmt.Errorf("base and quote tokens are required")
	}
	if spec.Liquidity == "" {
		return model.Position{}, fmt.Errorf("liquidity is required")
	}
	id := spec.ID
	if id == "" {
		id = "adhoc"
	}
	initial := spec.InitialValue
	if initial == "" {
		initial = "0"
	}
	return model.Position{
		ID:            id,
		Pool:          spec.Pool,
		BaseToken:     spec.BaseToken,
		QuoteToken:    spec.QuoteToken,
		TickLower:     int32(spec.TickLower),
		TickUpper:     int32(spec.TickUpper),
		Liquidity:     spec.Liquidity,
		InitialValue:  initial,
		CollectedFees: spec.CollectedFees,
	}, nil
}

// selectPosition resolves the single position a command operates on: the
// ad-hoc flags when given, otherwise a stored position by id.
func selectPosition(ctx context.Context, store storage.PositionStore, spec config.PositionSpec) (model.Position, error) {
	if spec.Pool != "" {
		return positionFromSpec(spec)
	}
	if spec.ID == "" {
		return model.Position{}, fmt.Errorf("either --pool or --id is required")
	}
	if store == nil {
		return model.Position{}, fmt.Errorf("no position store configured")
	}
	positions, err := store.LoadPositions(ctx)
	if err != nil {
		return model.Position{}, err
	}
	for _, p := range positions {
		if p.ID == spec.ID {
			return p, nil
		}
	}
	return model.Position{}, fmt.Errorf("position %s not found", spec.ID)
}

func fillChainID(ctx context.Context, client *chain.Client, p *model.Position) error {
	if p.ChainID != 0 {
		return nil
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	p.ChainID = chainID.Uint64()
	return nil
}

func parsePrice(input string) (*big.Int, error) {
	if input == "" {
		return nil, nil
	}
	price, ok := new(big.Int).SetString(input, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid price: %s", input)
	}
	return price, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
