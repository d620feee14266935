package runtime

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(config.PoolConfig{
		VotingPeriodSeconds:    600,
		ChallengePeriodSeconds: 60,
		MinStake:               "5000000000000000000",
		InitialPremiumRate:     12,
		Treasury:               "vault",
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	if cfg.VotingPeriod != 600*time.Second || cfg.ChallengePeriod != 60*time.Second {
		t.Fatalf("unexpected windows: %+v", cfg)
	}
	want, _ := new(big.Int).SetString("5000000000000000000", 10)
	if cfg.MinStake.Cmp(want) != 0 {
		t.Fatalf("expected min stake %s, got %s", want, cfg.MinStake)
	}
	if cfg.InitialPremiumRate != 12 || cfg.Treasury != "vault" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestPoolConfigDefaultsAndErrors(t *testing.T) {
	cfg, err := poolConfig(config.PoolConfig{})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	if cfg.MinStake.Cmp(dao.DefaultMinStake()) != 0 {
		t.Fatalf("expected default min stake, got %s", cfg.MinStake)
	}

	for _, bad := range []string{"abc", "-1", "0"} {
		if _, err := poolConfig(config.PoolConfig{MinStake: bad}); err == nil {
			t.Fatalf("expected error for min_stake %q", bad)
		}
	}
}

func TestNewApplicationInMemory(t *testing.T) {
	cfg, err := config.LoadFromPath(t.TempDir() + "/absent.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Pool.BootstrapAdmin = "admin"

	app, err := newApplication(cfg, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if app.db != nil {
		t.Fatal("no DSN configured, expected in-memory stores without a db handle")
	}
	if got := app.Pool().RoleOf(context.Background(), "admin"); got != "admin" {
		t.Fatalf("expected bootstrapped admin role, got %s", got)
	}
}
