package cmd

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
	"github.com/TruWeaveTrader/pairs-gym/internal/risk"
	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
)

// observeLogs swaps the package logger for one recording warnings and above
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	prevLogger, prevRisk := logger, riskManager
	logger = zap.New(core)
	riskManager = risk.NewManager(&config.Config{RiskMaxDrawdownPercent: 20, RiskMinReturnPercent: -10})
	t.Cleanup(func() {
		logger, riskManager = prevLogger, prevRisk
	})
	return logs
}

func TestReportPair_WarnsWhenNotCointegrated(t *testing.T) {
	logs := observeLogs(t)
	pair := &models.PairSeries{SymbolA: "GLD", SymbolB: "GDX"}

	check := reportPair(pair, &stats.CointegrationResult{PValue: 0.42})
	if !check.Passed {
		t.Errorf("Expected pair check to pass with a warning, got %s", check.Reason)
	}

	entries := logs.FilterMessage("pair not cointegrated").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["p_value"] != 0.42 {
		t.Errorf("Expected p_value 0.42, got %v", fields["p_value"])
	}
	if fields["pair"] != "GLD/GDX" {
		t.Errorf("Expected pair GLD/GDX, got %v", fields["pair"])
	}
}

func TestReportPair_QuietWhenCointegrated(t *testing.T) {
	logs := observeLogs(t)
	pair := &models.PairSeries{SymbolA: "GLD", SymbolB: "GDX"}

	reportPair(pair, &stats.CointegrationResult{PValue: 0.01, IsCointegrated: true})

	if logs.Len() != 0 {
		t.Errorf("Expected no warnings, got %d", logs.Len())
	}
}

func TestSpanOf(t *testing.T) {
	day := func(m, d int) time.Time { return time.Date(2024, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

	start, end := spanOf(day(1, 1), day(6, 1), day(6, 1), day(12, 1))
	if !start.Equal(day(1, 1)) || !end.Equal(day(12, 1)) {
		t.Errorf("Expected 2024-01-01..2024-12-01, got %s..%s", start, end)
	}

	start, end = spanOf(day(3, 1), day(4, 1), day(1, 1), day(2, 1))
	if !start.Equal(day(1, 1)) || !end.Equal(day(4, 1)) {
		t.Errorf("Expected 2024-01-01..2024-04-01, got %s..%s", start, end)
	}
}
