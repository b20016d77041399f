package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const poolHex = "abababababababababababababababababababababababababababababababab"

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("horizon-url", "", "")
	flags.StringSlice("pool", nil, "")
	flags.String("tolerance", "0.005", "")
	flags.Duration("interval", 5*time.Second, "")
	flags.String("log-level", "info", "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interval != 5*time.Second {
		t.Fatalf("expected 5s interval, got %s", cfg.Interval)
	}
	if cfg.Tolerance.String() != "0.005" {
		t.Fatalf("expected 0.005 tolerance, got %s", cfg.Tolerance)
	}
	if cfg.MaxRetries != 3 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Pools) != 0 {
		t.Fatalf("expected no pools, got %v", cfg.Pools)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("LPCTL_HORIZON_URL", "http://env-horizon")
	t.Setenv("LPCTL_POOL", poolHex+", ")
	t.Setenv("LPCTL_RETRY_BACKOFF", "2s")

	flags := testFlags()
	if err := flags.Parse([]string{"--horizon-url", "http://flag-horizon", "--tolerance", "0.01"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HorizonURL != "http://flag-horizon" {
		t.Fatalf("flag should win over env, got %s", cfg.HorizonURL)
	}
	if cfg.Tolerance.String() != "0.01" {
		t.Fatalf("expected tolerance 0.01, got %s", cfg.Tolerance)
	}
	if cfg.RetryBackoff != 2*time.Second {
		t.Fatalf("expected 2s backoff, got %s", cfg.RetryBackoff)
	}
	id, err := cfg.SinglePool()
	if err != nil {
		t.Fatalf("single pool: %v", err)
	}
	if id.String() != poolHex {
		t.Fatalf("unexpected pool %s", id)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lpctl.yaml")
	content := "account: GACC\npool:\n  - " + poolHex + "\n  - cdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd\ninterval: 1s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Account != "GACC" || cfg.Interval != time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	ids, err := cfg.PoolIDs()
	if err != nil {
		t.Fatalf("pool ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(ids))
	}
	if _, err := cfg.SinglePool(); err == nil {
		t.Fatalf("expected error for two pools")
	}
}

func TestLoadRejectsBadTolerance(t *testing.T) {
	for _, tol := range []string{"abc", "1", "-0.1"} {
		t.Setenv("LPCTL_TOLERANCE", tol)
		if _, err := Load("", nil); err == nil {
			t.Fatalf("expected error for tolerance %q", tol)
		}
	}
}

func TestPoolIDsRejectsMalformed(t *testing.T) {
	cfg := Config{Pools: []string{"xyz"}}
	if _, err := cfg.PoolIDs(); err == nil {
		t.Fatalf("expected error")
	}
}
