package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestCheckCointegration_CointegratedPair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a, b := cointegratedPair(rng, 500, 2, 5, 1)

	res, err := CheckCointegration(a, b)
	require.NoError(t, err)

	assert.True(t, res.IsCointegrated)
	assert.Less(t, res.PValue, 0.01)
	assert.Less(t, res.TestStatistic, res.CriticalValues.OnePercent)
	assert.InDelta(t, 2, res.HedgeRatio, 0.05)
	assert.False(t, res.Collinear)
	assert.Equal(t, res.PValue < SignificanceLevel, res.IsCointegrated)
}

func TestCheckCointegration_ReferenceSample(t *testing.T) {
	// AIC picks lag 2 of 11 candidates, leaving 57 rows in the final regression
	a := []float64{
		47.0, 46.29, 47.13, 46.75, 46.44, 45.37, 45.1, 46.06, 47.17, 47.1,
		47.0, 47.81, 48.73, 47.61, 47.34, 46.92, 47.97, 46.66, 45.18, 45.26,
		45.4, 45.54, 45.5, 45.95, 45.98, 46.12, 46.32, 45.78, 46.2, 47.24,
		48.38, 47.88, 46.31, 45.98, 46.45, 46.2, 46.59, 46.87, 45.58, 46.02,
		47.01, 46.17, 46.4, 46.87, 45.65, 46.02, 46.47, 44.74, 44.96, 44.75,
		43.69, 44.53, 44.98, 43.41, 43.37, 43.96, 44.73, 45.78, 46.72, 46.23,
	}
	b := []float64{
		30.0, 29.87, 30.13, 30.02, 29.86, 29.39, 29.28, 29.84, 30.05, 30.57,
		30.69, 30.89, 30.98, 30.15, 30.58, 30.83, 31.08, 30.23, 29.36, 28.92,
		28.69, 28.84, 28.82, 29.08, 28.76, 28.91, 29.11, 28.78, 29.64, 29.92,
		30.52, 30.21, 29.84, 29.67, 29.62, 29.94, 30.06, 29.84, 29.36, 29.1,
		29.71, 29.31, 29.43, 29.64, 28.9, 28.92, 29.57, 28.56, 28.4, 28.35,
		27.94, 28.19, 28.16, 27.43, 27.84, 28.17, 28.64, 29.36, 29.54, 29.6,
	}

	res, err := CheckCointegration(a, b)
	require.NoError(t, err)

	assert.InDelta(t, 1.2554630643642213, res.HedgeRatio, 1e-9)
	assert.InDelta(t, 9.151729559875093, res.Intercept, 1e-8)
	assert.Equal(t, 2, res.UsedLag)
	assert.Equal(t, 57, res.Nobs)
	assert.InDelta(t, -2.9388706384639858, res.TestStatistic, 1e-6)
	assert.InDelta(t, 0.1254603157467863, res.PValue, 1e-6)
	assert.False(t, res.IsCointegrated)
	assert.False(t, res.Collinear)

	assert.InDelta(t, -4.088536839988509, res.CriticalValues.OnePercent, 1e-9)
	assert.InDelta(t, -3.4416510858948572, res.CriticalValues.FivePercent, 1e-9)
	assert.InDelta(t, -3.1171161304222923, res.CriticalValues.TenPercent, 1e-9)
}

func TestCheckCointegration_DecisionMatchesPValue(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		a := randomWalk(rng, 300, 50)
		b := randomWalk(rng, 300, 80)

		res, err := CheckCointegration(a, b)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, res.PValue, 0.0)
		assert.LessOrEqual(t, res.PValue, 1.0)
		assert.Equal(t, res.PValue < SignificanceLevel, res.IsCointegrated, "seed %d p=%v", seed, res.PValue)
	}
}

func TestCheckCointegration_Collinear(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := randomWalk(rng, 100, 100)
	a := make([]float64, len(b))
	for i := range b {
		a[i] = 3*b[i] + 2
	}

	res, err := CheckCointegration(a, b)
	require.NoError(t, err)

	assert.True(t, res.Collinear)
	assert.True(t, math.IsInf(res.TestStatistic, -1))
	assert.Equal(t, 0.0, res.PValue)
	assert.True(t, res.IsCointegrated)
}

func TestCheckCointegration_ConstantRegressor(t *testing.T) {
	_, err := CheckCointegration([]float64{1, 2, 3, 4, 5}, []float64{2, 2, 2, 2, 2})
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestMackinnonP(t *testing.T) {
	// The asymptotic 5% critical value maps back to p ≈ 0.05
	assert.InDelta(t, 0.05, mackinnonP(-3.33613, 2), 0.002)
	assert.InDelta(t, 0.05, mackinnonP(-2.86154, 1), 0.002)

	assert.Equal(t, 1.0, mackinnonP(1.5, 2))
	assert.Equal(t, 0.0, mackinnonP(-25, 2))

	// Both response surfaces meet at the switch point
	small := distuv.UnitNormal.CDF(polyval(tauSmallPC[1], -2.62))
	large := distuv.UnitNormal.CDF(polyval(tauLargePC[1], -2.62))
	assert.InDelta(t, small, large, 0.005)

	prev := 0.0
	for tau := -18.0; tau <= 0.9; tau += 0.1 {
		p := mackinnonP(tau, 2)
		assert.GreaterOrEqual(t, p, prev-1e-3, "p-value should rise with tau (tau=%.1f)", tau)
		prev = p
	}
}

func TestMackinnonCrit(t *testing.T) {
	asymptotic := mackinnonCrit(1 << 30)
	assert.InDelta(t, -3.89644, asymptotic.OnePercent, 1e-6)
	assert.InDelta(t, -3.33613, asymptotic.FivePercent, 1e-6)
	assert.InDelta(t, -3.04445, asymptotic.TenPercent, 1e-6)

	small := mackinnonCrit(50)
	assert.Less(t, small.OnePercent, asymptotic.OnePercent)
	assert.Less(t, small.OnePercent, small.FivePercent)
	assert.Less(t, small.FivePercent, small.TenPercent)
}

func TestAdfMaxLag(t *testing.T) {
	assert.Equal(t, 12, adfMaxLag(100))
	assert.Equal(t, 4, adfMaxLag(10))
	assert.Equal(t, -1, adfMaxLag(1))
}

func TestAdfNoConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	noise := make([]float64, 400)
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}

	res, err := adfNoConstant(noise)
	require.NoError(t, err)
	assert.Less(t, res.stat, -4.0, "white noise should reject a unit root")
	assert.GreaterOrEqual(t, res.usedLag, 0)
	assert.LessOrEqual(t, res.usedLag, adfMaxLag(len(noise)))
	assert.Equal(t, len(noise)-1-res.usedLag, res.nobs)

	_, err = adfNoConstant([]float64{1})
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestFitOLS(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	fit, err := fitOLS([]float64{2, 4.1, 5.9, 8.2}, x)
	require.NoError(t, err)
	assert.InDelta(t, 60.7/30, fit.params[0], 1e-9)
	assert.Greater(t, fit.stdErr[0], 0.0)

	singular := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	_, err = fitOLS([]float64{1, 2, 3, 4}, singular)
	assert.ErrorIs(t, err, ErrNumerical)

	_, err = fitOLS([]float64{1}, mat.NewDense(1, 1, []float64{1}))
	assert.ErrorIs(t, err, ErrNumerical)
}
