package formatters

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/TruWeaveTrader/pairs-gym/internal/agent"
	"github.com/TruWeaveTrader/pairs-gym/internal/backtest"
	"github.com/TruWeaveTrader/pairs-gym/internal/env"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
	"github.com/TruWeaveTrader/pairs-gym/internal/risk"
	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
)

// Colors for different values
var (
	ColorGreen  = text.FgGreen
	ColorRed    = text.FgRed
	ColorYellow = text.FgYellow
	ColorBlue   = text.FgCyan
	ColorWhite  = text.FgWhite
	ColorGray   = text.FgHiBlack
)

// FormatPrice formats a price with color based on change
func FormatPrice(price decimal.Decimal, change decimal.Decimal) string {
	priceStr := fmt.Sprintf("$%.2f", price.InexactFloat64())

	if change.IsPositive() {
		return ColorGreen.Sprint(priceStr)
	} else if change.IsNegative() {
		return ColorRed.Sprint(priceStr)
	}
	return priceStr
}

// FormatPercent formats a percentage with color
func FormatPercent(percent decimal.Decimal) string {
	sign := ""
	if percent.IsPositive() {
		sign = "+"
	}

	percentStr := fmt.Sprintf("%s%.2f%%", sign, percent.InexactFloat64())

	if percent.IsPositive() {
		return ColorGreen.Sprint(percentStr)
	} else if percent.IsNegative() {
		return ColorRed.Sprint(percentStr)
	}
	return percentStr
}

// FormatDollarAmount formats a dollar amount with appropriate color
func FormatDollarAmount(amount decimal.Decimal) string {
	amountStr := fmt.Sprintf("$%.2f", amount.Abs().InexactFloat64())

	if amount.IsNegative() {
		return ColorRed.Sprint("-" + amountStr)
	}
	return ColorGreen.Sprint(amountStr)
}

// FormatDate formats a bar timestamp for display
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

// FormatPairPreview shows the size and the first and last rows of an aligned pair
func FormatPairPreview(pair *models.PairSeries, rows int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s / %s  (%d bars)", pair.SymbolA, pair.SymbolB, pair.Len()))
	t.AppendHeader(table.Row{"Date", pair.SymbolA, pair.SymbolB, "A - B"})

	n := pair.Len()
	appendRow := func(i int) {
		change := decimal.Zero
		if i > 0 {
			change = decimal.NewFromFloat(pair.A[i] - pair.B[i] - (pair.A[i-1] - pair.B[i-1]))
		}
		t.AppendRow(table.Row{
			FormatDate(pair.Timestamps[i]),
			fmt.Sprintf("$%.2f", pair.A[i]),
			fmt.Sprintf("$%.2f", pair.B[i]),
			FormatPrice(decimal.NewFromFloat(pair.A[i]-pair.B[i]), change),
		})
	}

	if n <= 2*rows {
		for i := 0; i < n; i++ {
			appendRow(i)
		}
	} else {
		for i := 0; i < rows; i++ {
			appendRow(i)
		}
		t.AppendRow(table.Row{ColorGray.Sprint("..."), "", "", ""})
		for i := n - rows; i < n; i++ {
			appendRow(i)
		}
	}

	if n == 0 {
		t.AppendRow(table.Row{"No data", "", "", ""})
	}

	return t.Render()
}

// FormatCointegration creates the Engle-Granger test summary
func FormatCointegration(symbolA, symbolB string, result *stats.CointegrationResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Cointegration %s ~ %s", symbolA, symbolB))

	verdict := ColorRed.Sprint("NO")
	if result.IsCointegrated {
		verdict = ColorGreen.Sprint("YES")
	}

	t.AppendRow(table.Row{"Cointegrated", verdict})
	t.AppendRow(table.Row{"p-value", fmt.Sprintf("%.4f", result.PValue)})
	t.AppendRow(table.Row{"Test statistic", fmt.Sprintf("%.4f", result.TestStatistic)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Critical 1%", fmt.Sprintf("%.4f", result.CriticalValues.OnePercent)})
	t.AppendRow(table.Row{"Critical 5%", fmt.Sprintf("%.4f", result.CriticalValues.FivePercent)})
	t.AppendRow(table.Row{"Critical 10%", fmt.Sprintf("%.4f", result.CriticalValues.TenPercent)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Hedge ratio", fmt.Sprintf("%.4f", result.HedgeRatio)})
	t.AppendRow(table.Row{"Intercept", fmt.Sprintf("%.4f", result.Intercept)})
	t.AppendRow(table.Row{"ADF lag / nobs", fmt.Sprintf("%d / %d", result.UsedLag, result.Nobs)})
	if result.Collinear {
		t.AppendRow(table.Row{"Collinear", ColorYellow.Sprint("yes")})
	}

	return t.Render()
}

// FormatTrainingSummary shows the last episodes of a training run
func FormatTrainingSummary(history []agent.EpisodeStats, last int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Episode", "Steps", "Reward", "Final Balance", "Epsilon"})

	from := 0
	if len(history) > last {
		from = len(history) - last
	}
	for _, ep := range history[from:] {
		rewardColor := ColorGreen
		if ep.TotalReward < 0 {
			rewardColor = ColorRed
		}
		t.AppendRow(table.Row{
			ep.Episode,
			ep.Steps,
			rewardColor.Sprintf("%.2f", ep.TotalReward),
			fmt.Sprintf("$%.2f", ep.FinalBalance),
			fmt.Sprintf("%.3f", ep.Epsilon),
		})
	}

	if len(history) == 0 {
		t.AppendRow(table.Row{"No episodes", "", "", "", ""})
	}

	return t.Render()
}

// FormatBacktestSummary creates the headline table of a backtest
func FormatBacktestSummary(s backtest.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	pnl := decimal.NewFromFloat(s.FinalBalance).Sub(decimal.NewFromFloat(s.InitialBalance))

	t.AppendRow(table.Row{"Initial Balance", fmt.Sprintf("$%.2f", s.InitialBalance)})
	t.AppendRow(table.Row{"Final Balance", fmt.Sprintf("$%.2f", s.FinalBalance)})
	t.AppendRow(table.Row{"P&L", FormatDollarAmount(pnl)})
	t.AppendRow(table.Row{"Total Return", FormatPercent(decimal.NewFromFloat(s.TotalReturn * 100))})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Max Drawdown", ColorRed.Sprintf("%.2f%%", s.MaxDrawdown*100)})
	t.AppendRow(table.Row{"Sharpe", fmt.Sprintf("%.2f", s.Sharpe)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Steps", s.Steps})
	t.AppendRow(table.Row{"Trades", s.Trades})
	t.AppendRow(table.Row{"Win Rate", fmt.Sprintf("%.1f%%", s.WinRate()*100)})

	return t.Render()
}

// FormatLedgerTable shows the steps where the position changed
func FormatLedgerTable(ledger []backtest.LedgerRow, maxRows int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Date", "Z", "A - B", "Action", "Position", "Balance"})

	shown := 0
	for _, r := range ledger {
		if r.PositionBefore == r.PositionAfter {
			continue
		}
		if shown == maxRows {
			t.AppendRow(table.Row{ColorGray.Sprint("..."), "", "", "", "", "", ""})
			break
		}
		t.AppendRow(table.Row{
			r.Step,
			FormatDate(r.Time),
			fmt.Sprintf("%.2f", r.ZScore),
			fmt.Sprintf("%.2f", r.SpreadPrice),
			r.Action.String(),
			formatPosition(r.PositionAfter),
			fmt.Sprintf("$%.2f", r.Balance),
		})
		shown++
	}

	if shown == 0 {
		t.AppendRow(table.Row{"No trades", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatCheck renders a risk check result on one or more lines
func FormatCheck(name string, result risk.CheckResult) string {
	var parts []string
	if result.Passed {
		parts = append(parts, fmt.Sprintf("%s %s", ColorGreen.Sprint("✓"), name))
	} else {
		parts = append(parts, fmt.Sprintf("%s %s: %s", ColorRed.Sprint("✗"), name, result.Reason))
	}
	for _, w := range result.Warnings {
		parts = append(parts, fmt.Sprintf("  %s %s", ColorYellow.Sprint("!"), w))
	}
	return strings.Join(parts, "\n")
}

func formatPosition(p env.Position) string {
	switch p {
	case env.Long:
		return ColorGreen.Sprint(p.String())
	case env.Short:
		return ColorRed.Sprint(p.String())
	default:
		return ColorGray.Sprint(p.String())
	}
}
