package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PositionSpec carries the ad-hoc position flags shared by all commands.
// When Pool is set the command values this inline position instead of (or
// on top of) the stored ones.
type PositionSpec struct {
	ID            string
	Pool          string
	BaseToken     string
	QuoteToken    string
	TickLower     int
	TickUpper     int
	Liquidity     string
	InitialValue  string
	CollectedFees string
}

// ValueConfig holds configuration for the value command.
type ValueConfig struct {
	RPCURL        string
	PositionsFile string
	PGDSN         string
	IDs           []string
	Position      PositionSpec
	Price         string
	Block         uint64
	WithCurve     bool
	WithBreakEven bool
	Out           string
	Watch         time.Duration
	SavePositions bool
	CacheTTL      time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

// LoadValue merges config file, environment variables, and flags into ValueConfig.
func LoadValue(cfgFile string, flags *pflag.FlagSet) (ValueConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DUNCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("positions", "./data/positions.json")
	v.SetDefault("cache-ttl", 5*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return ValueConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return ValueConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return ValueConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := ValueConfig{
		RPCURL:        v.GetString("rpc"),
		PositionsFile: v.GetString("positions"),
		PGDSN:         v.GetString("pg-dsn"),
		IDs:           getStringSlice(v, "ids"),
		Position:      readPositionSpec(v),
		Price:         v.GetString("price"),
		Block:         v.GetUint64("block"),
		WithCurve:     v.GetBool("with-curve"),
		WithBreakEven: v.GetBool("with-breakeven"),
		Out:           v.GetString("out"),
		Watch:         v.GetDuration("watch"),
		SavePositions: v.GetBool("save"),
		CacheTTL:      v.GetDuration("cache-ttl"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

func readPositionSpec(v *viper.Viper) PositionSpec {
	return PositionSpec{
		ID:            v.GetString("id"),
		Pool:          v.GetString("pool"),
		BaseToken:     v.GetString("base"),
		QuoteToken:    v.GetString("quote"),
		TickLower:     v.GetInt("tick-lower"),
		TickUpper:     v.GetInt("tick-upper"),
		Liquidity:     v.GetString("liquidity"),
		InitialValue:  v.GetString("initial-value"),
		CollectedFees: v.GetString("collected-fees"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
