package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// adfResult is the outcome of an augmented Dickey-Fuller regression without deterministic terms
type adfResult struct {
	stat    float64
	usedLag int
	nobs    int
}

// adfMaxLag is Schwert's rule, capped so that at least half the sample stays in the regression
func adfMaxLag(n int) int {
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 1; limit < maxlag {
		maxlag = limit
	}
	return maxlag
}

// adfNoConstant tests x for a unit root. The lag order is the one with the lowest AIC,
// compared over the common sample left after the largest candidate lag.
func adfNoConstant(x []float64) (*adfResult, error) {
	n := len(x)
	maxlag := adfMaxLag(n)
	if maxlag < 0 {
		return nil, fmt.Errorf("%w: %d observations are too few for a unit-root test", ErrNumerical, n)
	}

	diff := make([]float64, n-1)
	for i := range diff {
		diff[i] = x[i+1] - x[i]
	}

	bestLag, bestAIC := 0, math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		y, design := adfDesign(x, diff, lag, maxlag)
		fit, err := fitOLS(y, design)
		if err != nil {
			return nil, fmt.Errorf("adf lag %d: %w", lag, err)
		}
		if aic := fit.aic(); aic < bestAIC {
			bestAIC, bestLag = aic, lag
		}
	}

	y, design := adfDesign(x, diff, bestLag, bestLag)
	fit, err := fitOLS(y, design)
	if err != nil {
		return nil, fmt.Errorf("adf lag %d: %w", bestLag, err)
	}

	return &adfResult{
		stat:    fit.tValue(0),
		usedLag: bestLag,
		nobs:    fit.nobs,
	}, nil
}

// adfDesign builds Δx[t] = ρ·x[t] + Σ γj·Δx[t-j] for rows starting at diff index start
func adfDesign(x, diff []float64, lag, start int) ([]float64, *mat.Dense) {
	nobs := len(diff) - start
	cols := 1 + lag

	y := make([]float64, nobs)
	data := make([]float64, 0, nobs*cols)
	for r := 0; r < nobs; r++ {
		t := start + r
		y[r] = diff[t]
		data = append(data, x[t])
		for j := 1; j <= lag; j++ {
			data = append(data, diff[t-j])
		}
	}
	return y, mat.NewDense(nobs, cols, data)
}
