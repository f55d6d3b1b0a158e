package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "")
	t.Setenv("STRATEGY_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ScanInterval != time.Hour {
		t.Fatalf("expected 1h scan interval, got %s", cfg.ScanInterval)
	}
	if cfg.CandidateDelay != 1200*time.Millisecond {
		t.Fatalf("unexpected candidate delay: %s", cfg.CandidateDelay)
	}
	if cfg.Strategy.Spot.StopLoss != 0.008 || cfg.Strategy.Spot.TakeProfit != 0.015 {
		t.Fatalf("unexpected spot thresholds: %+v", cfg.Strategy.Spot)
	}
	if cfg.Strategy.Sizing.MaxBalanceFraction != 0.08 {
		t.Fatalf("unexpected sizing: %+v", cfg.Strategy.Sizing)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("SPOT_POLL_INTERVAL", "soon")
	t.Setenv("FETCH_RETRIES", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for malformed values")
	}
	if !strings.Contains(err.Error(), "SPOT_POLL_INTERVAL") || !strings.Contains(err.Error(), "FETCH_RETRIES") {
		t.Fatalf("expected both keys in error, got %v", err)
	}
}

func TestLoadStrategyOverlay(t *testing.T) {
	strategy := DefaultStrategy()
	if err := LoadStrategy(filepath.Join("testdata", "strategy.yaml"), &strategy); err != nil {
		t.Fatalf("LoadStrategy returned error: %v", err)
	}

	if strategy.Spot.StopLoss != 0.01 || strategy.Spot.TakeProfit != 0.02 {
		t.Fatalf("overlay not applied: %+v", strategy.Spot)
	}
	if strategy.Spot.FeeRate != 0.001 {
		t.Fatalf("expected untouched fee rate, got %v", strategy.Spot.FeeRate)
	}
	if strategy.Scanner.MinEdge != 8 || strategy.Scanner.MarketLimit != 50 {
		t.Fatalf("unexpected scanner config: %+v", strategy.Scanner)
	}
	if strategy.Sizing.MaxBet != 250 || strategy.Sizing.MinBet != 5 {
		t.Fatalf("unexpected sizing: %+v", strategy.Sizing)
	}
}

func TestValidateTelegramNeedsOwner(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("AUTHORIZED_USER_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when telegram token has no owner")
	}
}
