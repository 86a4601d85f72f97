package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
)

// Manager handles post-run risk checks
type Manager struct {
	cfg *config.Config
}

// NewManager creates a new risk manager
func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// CheckResult contains the result of a risk check
type CheckResult struct {
	Passed   bool
	Reason   string
	Warnings []string
}

// CheckPair warns when a pair is not cointegrated. Trading it is allowed but the
// mean-reversion premise is unsupported.
func (m *Manager) CheckPair(result *stats.CointegrationResult) CheckResult {
	if result == nil {
		return CheckResult{
			Passed: false,
			Reason: "Missing cointegration result",
		}
	}

	check := CheckResult{Passed: true}
	if !result.IsCointegrated {
		check.Warnings = append(check.Warnings,
			fmt.Sprintf("Pair is not cointegrated (p=%.4f >= %.2f); statistical arbitrage might fail",
				result.PValue, stats.SignificanceLevel))
	}
	if result.Collinear {
		check.Warnings = append(check.Warnings, "Legs are perfectly collinear; the spread carries no signal")
	}
	return check
}

// CheckDrawdown validates the peak-to-trough loss of a portfolio history
func (m *Manager) CheckDrawdown(history []float64) CheckResult {
	if len(history) == 0 {
		return CheckResult{
			Passed: false,
			Reason: "Empty portfolio history",
		}
	}

	peak := decimal.NewFromFloat(history[0])
	worst := decimal.Zero
	for _, v := range history {
		value := decimal.NewFromFloat(v)
		if value.GreaterThan(peak) {
			peak = value
		}
		if peak.IsPositive() {
			dd := peak.Sub(value).Div(peak).Mul(decimal.NewFromInt(100))
			if dd.GreaterThan(worst) {
				worst = dd
			}
		}
	}

	maxDrawdown := decimal.NewFromFloat(m.cfg.RiskMaxDrawdownPercent)
	if worst.GreaterThan(maxDrawdown) {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Max drawdown %.2f%% exceeds limit %.2f%%",
				worst.InexactFloat64(), maxDrawdown.InexactFloat64()),
		}
	}

	// Add warning if approaching limit
	result := CheckResult{Passed: true}
	usage := worst.Div(maxDrawdown).Mul(decimal.NewFromInt(100))
	if usage.GreaterThan(decimal.NewFromInt(75)) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Approaching drawdown limit: %.1f%% used", usage.InexactFloat64()))
	}

	return result
}

// CheckReturn validates the total return of a run against the minimum allowed
func (m *Manager) CheckReturn(initial, final float64) CheckResult {
	start := decimal.NewFromFloat(initial)
	if !start.IsPositive() {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Invalid initial balance $%.2f", initial),
		}
	}

	returnPercent := decimal.NewFromFloat(final).Sub(start).Div(start).Mul(decimal.NewFromInt(100))
	minReturn := decimal.NewFromFloat(m.cfg.RiskMinReturnPercent)

	if returnPercent.LessThan(minReturn) {
		return CheckResult{
			Passed: false,
			Reason: fmt.Sprintf("Return %.2f%% is below minimum %.2f%%",
				returnPercent.InexactFloat64(), minReturn.InexactFloat64()),
		}
	}

	result := CheckResult{Passed: true}
	if returnPercent.IsNegative() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Run lost money: %.2f%%", returnPercent.InexactFloat64()))
	}

	return result
}
