package stats

import "errors"

var (
	// ErrInvalidInput is returned for mismatched lengths, short samples or non-finite values.
	ErrInvalidInput = errors.New("invalid input series")

	// ErrZeroVariance is returned when the spread is constant and a z-score is undefined.
	ErrZeroVariance = errors.New("spread has zero variance")

	// ErrNumerical is returned when a regression cannot be solved (singular design, too few observations).
	ErrNumerical = errors.New("numerical failure")
)
