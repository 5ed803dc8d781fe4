package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BreakEvenConfig holds configuration for the breakeven command.
type BreakEvenConfig struct {
	RPCURL        string
	PositionsFile string
	PGDSN         string
	Position      PositionSpec
	Price         string
	Block         uint64
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
}

// LoadBreakEven merges config file, environment variables, and flags into BreakEvenConfig.
func LoadBreakEven(cfgFile string, flags *pflag.FlagSet) (BreakEvenConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("DUNCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("positions", "./data/positions.json")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return BreakEvenConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return BreakEvenConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return BreakEvenConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := BreakEvenConfig{
		RPCURL:        v.GetString("rpc"),
		PositionsFile: v.GetString("positions"),
		PGDSN:         v.GetString("pg-dsn"),
		Position:      readPositionSpec(v),
		Price:         v.GetString("price"),
		Block:         v.GetUint64("block"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
