package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response-surface coefficients for the tau statistic with a constant,
// indexed by the number of variables in the cointegrating regression (1 or 2).
var (
	tauMaxC  = []float64{2.74, 0.92}
	tauMinC  = []float64{-18.83, -18.86}
	tauStarC = []float64{-1.61, -2.62}

	tauSmallPC = [][]float64{
		{2.1659, 1.4412, 0.038269},
		{2.92, 1.5012, 0.039796},
	}
	tauLargePC = [][]float64{
		{1.7339, 0.93202, -0.12745, -0.010368},
		{2.1945, 0.64695, -0.29198, -0.042377},
	}
)

// MacKinnon (2010) finite-sample critical values for two variables with a constant:
// crit = b0 + b1/nobs + b2/nobs².
var tau2010C2 = [3][3]float64{
	{-3.89644, -10.9519, -22.527}, // 1%
	{-3.33613, -6.1101, -6.823},   // 5%
	{-3.04445, -4.2412, -2.720},   // 10%
}

// CriticalValues are the test-statistic thresholds at the 1%, 5% and 10% levels
type CriticalValues struct {
	OnePercent  float64 `json:"1%"`
	FivePercent float64 `json:"5%"`
	TenPercent  float64 `json:"10%"`
}

// mackinnonP returns the approximate p-value of a tau statistic for nvars variables
func mackinnonP(tau float64, nvars int) float64 {
	i := nvars - 1
	if tau > tauMaxC[i] {
		return 1
	}
	if tau < tauMinC[i] {
		return 0
	}

	coef := tauLargePC[i]
	if tau <= tauStarC[i] {
		coef = tauSmallPC[i]
	}
	return distuv.UnitNormal.CDF(polyval(coef, tau))
}

// mackinnonCrit returns the two-variable critical values for a sample of nobs
func mackinnonCrit(nobs int) CriticalValues {
	n := float64(nobs)
	crit := func(row [3]float64) float64 {
		return row[0] + row[1]/n + row[2]/(n*n)
	}
	return CriticalValues{
		OnePercent:  crit(tau2010C2[0]),
		FivePercent: crit(tau2010C2[1]),
		TenPercent:  crit(tau2010C2[2]),
	}
}

// polyval evaluates c0 + c1·x + c2·x² + ...
func polyval(coef []float64, x float64) float64 {
	out := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		out = out*x + coef[i]
	}
	return out
}
