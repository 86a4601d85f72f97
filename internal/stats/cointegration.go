// Package stats implements the statistics behind the pair: the Engle-Granger
// cointegration test and the OLS spread with its z-score.
//
// The z-score uses mean and standard deviation frozen over the whole input window,
// so every value sees the future of the sample. That is fine for research
// backtests and must not be used as a live signal.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// SignificanceLevel is the p-value below which a pair counts as cointegrated
const SignificanceLevel = 0.05

// MinObservations is the shortest series the engine accepts
const MinObservations = 3

// collinearR2 is the R² above which the two legs are treated as the same series
var collinearR2 = 1 - 100*math.Sqrt(2.220446049250313e-16)

// CointegrationResult is the outcome of an Engle-Granger two-step test
type CointegrationResult struct {
	PValue         float64        `json:"p_value"`
	TestStatistic  float64        `json:"test_statistic"`
	IsCointegrated bool           `json:"is_cointegrated"`
	CriticalValues CriticalValues `json:"critical_values"`
	HedgeRatio     float64        `json:"hedge_ratio"`
	Intercept      float64        `json:"intercept"`
	UsedLag        int            `json:"used_lag"`
	Nobs           int            `json:"nobs"`
	Collinear      bool           `json:"collinear"`
}

// CheckCointegration runs the Engle-Granger test of a against b.
// Step one regresses a on b with an intercept; step two runs a unit-root test on the
// residuals and converts its statistic to a MacKinnon p-value.
func CheckCointegration(a, b []float64) (*CointegrationResult, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}

	alpha, beta, err := hedgeRegression(a, b)
	if err != nil {
		return nil, fmt.Errorf("cointegrating regression: %w", err)
	}

	result := &CointegrationResult{
		HedgeRatio:     beta,
		Intercept:      alpha,
		CriticalValues: mackinnonCrit(len(a) - 1),
	}

	resid := make([]float64, len(a))
	for i := range a {
		resid[i] = a[i] - alpha - beta*b[i]
	}

	if stat.RSquared(b, a, nil, alpha, beta) >= collinearR2 {
		// Residuals are numerical noise; the unit-root regression is meaningless.
		result.TestStatistic = math.Inf(-1)
		result.PValue = 0
		result.IsCointegrated = true
		result.Collinear = true
		result.Nobs = len(a)
		return result, nil
	}

	adf, err := adfNoConstant(resid)
	if err != nil {
		return nil, fmt.Errorf("unit-root test on residuals: %w", err)
	}

	result.TestStatistic = adf.stat
	result.UsedLag = adf.usedLag
	result.Nobs = adf.nobs
	result.PValue = mackinnonP(adf.stat, 2)
	result.IsCointegrated = result.PValue < SignificanceLevel
	return result, nil
}

func validatePair(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: series lengths differ (%d vs %d)", ErrInvalidInput, len(a), len(b))
	}
	if len(a) < MinObservations {
		return fmt.Errorf("%w: need at least %d observations, got %d", ErrInvalidInput, MinObservations, len(a))
	}
	for i := range a {
		if !isFinite(a[i]) || !isFinite(b[i]) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
