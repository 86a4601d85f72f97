package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"step",
		"time",
		"z_score",
		"spread_price",
		"action",
		"position_before",
		"position_after",
		"closed",
		"balance",
		"reward",
		"cum_reward",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Step),
			fmtTime(r.Time),
			fmtFloat(r.ZScore),
			fmtFloat(r.SpreadPrice),
			r.Action.String(),
			r.PositionBefore.String(),
			r.PositionAfter.String(),
			strconv.FormatBool(r.Closed),
			fmtFloat(r.Balance),
			fmtFloat(r.Reward),
			fmtFloat(r.CumReward),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
