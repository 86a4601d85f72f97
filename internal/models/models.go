package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMisaligned is returned when the two legs of a pair do not share the same index
var ErrMisaligned = errors.New("pair series misaligned")

// Bar represents an OHLCV bar
type Bar struct {
	Symbol     string          `json:"symbol"`
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     int64           `json:"v"`
	Timestamp  time.Time       `json:"t"`
	TradeCount int64           `json:"n"`
	VWAP       decimal.Decimal `json:"vw"`
}

// PricePoint is a single close observation for one instrument
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceSeries is an ordered sequence of closes for one instrument
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Values returns the prices without timestamps
func (s *PriceSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// PairSeries holds two price series aligned 1:1 on a shared timestamp index
type PairSeries struct {
	SymbolA    string      `json:"symbol_a"`
	SymbolB    string      `json:"symbol_b"`
	Timestamps []time.Time `json:"timestamps"`
	A          []float64   `json:"a"`
	B          []float64   `json:"b"`
}

// Len returns the number of aligned observations
func (p *PairSeries) Len() int {
	return len(p.Timestamps)
}

// Validate checks the alignment and completeness invariants
func (p *PairSeries) Validate() error {
	if len(p.A) != len(p.Timestamps) || len(p.B) != len(p.Timestamps) {
		return fmt.Errorf("%w: %d timestamps, %d %s prices, %d %s prices",
			ErrMisaligned, len(p.Timestamps), len(p.A), p.SymbolA, len(p.B), p.SymbolB)
	}
	for i := range p.Timestamps {
		if i > 0 && !p.Timestamps[i].After(p.Timestamps[i-1]) {
			return fmt.Errorf("%w: timestamps not strictly increasing at row %d", ErrMisaligned, i)
		}
		if !isFinite(p.A[i]) || !isFinite(p.B[i]) {
			return fmt.Errorf("%w: missing or non-finite price at row %d", ErrMisaligned, i)
		}
	}
	return nil
}

// AlignPair inner-joins two series on timestamp, dropping rows present in only one leg
func AlignPair(a, b *PriceSeries) *PairSeries {
	byTime := make(map[int64]float64, len(b.Points))
	for _, p := range b.Points {
		byTime[p.Timestamp.UnixNano()] = p.Price
	}

	pair := &PairSeries{
		SymbolA:    a.Symbol,
		SymbolB:    b.Symbol,
		Timestamps: make([]time.Time, 0, len(a.Points)),
		A:          make([]float64, 0, len(a.Points)),
		B:          make([]float64, 0, len(a.Points)),
	}
	for _, p := range a.Points {
		priceB, ok := byTime[p.Timestamp.UnixNano()]
		if !ok || !isFinite(p.Price) || !isFinite(priceB) {
			continue
		}
		pair.Timestamps = append(pair.Timestamps, p.Timestamp)
		pair.A = append(pair.A, p.Price)
		pair.B = append(pair.B, priceB)
	}
	return pair
}

// SeriesFromBars converts bars into a close-price series
func SeriesFromBars(symbol string, bars []*Bar) *PriceSeries {
	series := &PriceSeries{Symbol: symbol, Points: make([]PricePoint, 0, len(bars))}
	for _, bar := range bars {
		if bar == nil {
			continue
		}
		series.Points = append(series.Points, PricePoint{
			Timestamp: bar.Timestamp,
			Price:     bar.Close.InexactFloat64(),
		})
	}
	return series
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
