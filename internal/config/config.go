package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityDesk/internal/model"
	"liquidityDesk/internal/slippage"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	HorizonURL   string
	RelayURL     string
	Pools        []string
	Account      string
	Interval     time.Duration
	Tolerance    decimal.Decimal
	Out          string
	PGDSN        string
	MetricsAddr  string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("horizon-url", "https://horizon.stellar.org")
	v.SetDefault("interval", 5*time.Second)
	v.SetDefault("tolerance", "0.005")
	v.SetDefault("out", "./data/snapshots.jsonl")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	tolerance, err := decimal.NewFromString(strings.TrimSpace(v.GetString("tolerance")))
	if err != nil {
		return Config{}, fmt.Errorf("parse tolerance: %w", err)
	}
	if err := slippage.ValidateTolerance(tolerance); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HorizonURL:   v.GetString("horizon-url"),
		RelayURL:     v.GetString("relay-url"),
		Pools:        getStringSlice(v, "pool"),
		Account:      strings.TrimSpace(v.GetString("account")),
		Interval:     v.GetDuration("interval"),
		Tolerance:    tolerance,
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		MetricsAddr:  v.GetString("metrics-addr"),
		Timeout:      v.GetDuration("timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// PoolIDs parses every configured pool id.
func (c Config) PoolIDs() ([]model.PoolID, error) {
	ids := make([]model.PoolID, 0, len(c.Pools))
	for _, raw := range c.Pools {
		id, err := model.ParsePoolID(raw)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SinglePool returns the one configured pool id.
func (c Config) SinglePool() (model.PoolID, error) {
	ids, err := c.PoolIDs()
	if err != nil {
		return model.PoolID{}, err
	}
	if len(ids) != 1 {
		return model.PoolID{}, fmt.Errorf("exactly one pool is required, got %d", len(ids))
	}
	return ids[0], nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
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
