package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// zeroVarianceTolerance scales with the spread level; OLS on an exactly linear pair
// leaves rounding noise rather than a literal zero.
const zeroVarianceTolerance = 1e-10

// SpreadRecord is one row of the derived spread, aligned with the input prices
type SpreadRecord struct {
	Spread float64 `json:"spread"`
	ZScore float64 `json:"z_score"`
}

// CalculateSpreadAndZScore fits the hedge ratio of a on b, builds spread = a - beta*b
// and standardises it with its own full-window mean and sample standard deviation.
func CalculateSpreadAndZScore(a, b []float64) ([]SpreadRecord, float64, error) {
	if err := validatePair(a, b); err != nil {
		return nil, 0, err
	}

	_, beta, err := hedgeRegression(a, b)
	if err != nil {
		return nil, 0, fmt.Errorf("hedge ratio: %w", err)
	}

	spread := make([]float64, len(a))
	for i := range a {
		spread[i] = a[i] - beta*b[i]
	}

	mean, std := stat.MeanStdDev(spread, nil)
	if std <= zeroVarianceTolerance*math.Max(1, math.Abs(mean)) {
		return nil, beta, fmt.Errorf("%w: std %g around mean %g", ErrZeroVariance, std, mean)
	}

	records := make([]SpreadRecord, len(spread))
	for i, s := range spread {
		records[i] = SpreadRecord{
			Spread: s,
			ZScore: (s - mean) / std,
		}
	}
	return records, beta, nil
}

// ZScores extracts the z-score column
func ZScores(records []SpreadRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.ZScore
	}
	return out
}

// Spreads extracts the spread column
func Spreads(records []SpreadRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Spread
	}
	return out
}
