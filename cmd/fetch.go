package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TruWeaveTrader/pairs-gym/internal/market"
	"github.com/TruWeaveTrader/pairs-gym/pkg/formatters"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rangeFlags(fetchCmd)
	fetchCmd.Flags().String("out", "", "write the aligned pair to a CSV file")
	fetchCmd.Flags().Int("rows", 5, "rows to preview from each end")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and align the configured pair",
	Long: `Fetches daily closes for TICKER_A and TICKER_B from the training start
to the test end, keeps the dates both traded and optionally saves them as
CSV for offline use with --data.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, to, err := dateRange(cmd, cfg.TrainStart, cfg.TestEnd)
	if err != nil {
		return err
	}

	// Start timer for performance tracking
	start := time.Now()

	pair, err := loadPair(ctx, cmd, from, to)
	if err != nil {
		return fmt.Errorf("failed to load pair: %w", err)
	}

	rows, _ := cmd.Flags().GetInt("rows")
	fmt.Println(formatters.FormatPairPreview(pair, rows))
	fmt.Printf("\n⏱  Fetched • %dms\n", time.Since(start).Milliseconds())

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := market.WritePairCSV(out, pair); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("💾 Saved %d rows to %s\n", pair.Len(), out)
	}

	return nil
}
