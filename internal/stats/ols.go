package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// olsFit holds the parts of a least-squares fit that the unit-root test needs
type olsFit struct {
	params []float64
	stdErr []float64
	ssr    float64
	nobs   int
}

// tValue returns the t statistic of the i-th coefficient
func (f *olsFit) tValue(i int) float64 {
	return f.params[i] / f.stdErr[i]
}

// aic is -2·llf + 2k for a regression without an intercept term
func (f *olsFit) aic() float64 {
	n := float64(f.nobs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
	return -2*llf + 2*float64(len(f.params))
}

// fitOLS solves y = Xb by the normal equations
func fitOLS(y []float64, x *mat.Dense) (*olsFit, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: design has %d rows, response has %d", ErrNumerical, n, len(y))
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d regressors", ErrNumerical, n, k)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: singular design matrix: %v", ErrNumerical, err)
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	if ssr == 0 {
		return nil, fmt.Errorf("%w: perfect fit leaves no residual variance", ErrNumerical)
	}

	sigma2 := ssr / float64(n-k)
	fit := &olsFit{
		params: make([]float64, k),
		stdErr: make([]float64, k),
		ssr:    ssr,
		nobs:   n,
	}
	for i := 0; i < k; i++ {
		fit.params[i] = beta.AtVec(i)
		fit.stdErr[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
	}
	return fit, nil
}

// hedgeRegression regresses a on b with an intercept
func hedgeRegression(a, b []float64) (alpha, beta float64, err error) {
	if stat.Variance(b, nil) == 0 {
		return 0, 0, fmt.Errorf("%w: regressor is constant, design matrix is singular", ErrNumerical)
	}
	alpha, beta = stat.LinearRegression(b, a, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		return 0, 0, fmt.Errorf("%w: regression produced non-finite coefficients", ErrNumerical)
	}
	return alpha, beta, nil
}
