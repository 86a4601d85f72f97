// Package market turns raw bars into aligned price pairs, either from the
// market data API or from local CSV files.
package market

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/cache"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
)

// BarSource fetches historical bars for one symbol
type BarSource interface {
	GetBars(ctx context.Context, symbol string, timeframe string, start, end time.Time, limit int) ([]*models.Bar, error)
}

// Loader fetches both legs of a pair and aligns them on timestamp
type Loader struct {
	source    BarSource
	cache     *cache.Cache
	timeframe string
	logger    *zap.Logger
}

// NewLoader creates a loader. cache may be nil.
func NewLoader(source BarSource, c *cache.Cache, timeframe string, logger *zap.Logger) *Loader {
	return &Loader{
		source:    source,
		cache:     c,
		timeframe: timeframe,
		logger:    logger.With(zap.String("component", "market_loader")),
	}
}

// LoadPair returns the closes of both symbols over [start, end], keeping only the
// timestamps present in both.
func (l *Loader) LoadPair(ctx context.Context, symbolA, symbolB string, start, end time.Time) (*models.PairSeries, error) {
	key := cache.PairKey(symbolA, symbolB, l.timeframe, start, end)
	if l.cache != nil {
		if pair, ok := l.cache.GetPair(key); ok {
			l.logger.Debug("pair cache hit", zap.String("key", key))
			return pair, nil
		}
	}

	a, err := l.loadSeries(ctx, symbolA, start, end)
	if err != nil {
		return nil, err
	}
	b, err := l.loadSeries(ctx, symbolB, start, end)
	if err != nil {
		return nil, err
	}

	pair := models.AlignPair(a, b)
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	dropped := len(a.Points) + len(b.Points) - 2*pair.Len()
	l.logger.Info("pair loaded",
		zap.String("symbol_a", symbolA),
		zap.String("symbol_b", symbolB),
		zap.Int("rows", pair.Len()),
		zap.Int("dropped", dropped))

	if l.cache != nil {
		l.cache.SetPair(key, pair)
	}
	return pair, nil
}

// Prefetch fetches both symbols over [start, end] so that later LoadPair calls for
// any window inside it are served from the cache.
func (l *Loader) Prefetch(ctx context.Context, symbolA, symbolB string, start, end time.Time) error {
	if l.cache == nil {
		return nil
	}
	for _, symbol := range []string{symbolA, symbolB} {
		if _, err := l.loadSeries(ctx, symbol, start, end); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadSeries(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	var bars []*models.Bar
	found := false
	if l.cache != nil {
		bars, found = l.cache.GetBars(symbol, l.timeframe, start, end)
	}
	if found {
		l.logger.Debug("bars cache hit", zap.String("symbol", symbol), zap.Int("count", len(bars)))
	} else {
		var err error
		bars, err = l.source.GetBars(ctx, symbol, l.timeframe, start, end, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s bars: %w", symbol, err)
		}
		l.logger.Debug("bars fetched", zap.String("symbol", symbol), zap.Int("count", len(bars)))
		if l.cache != nil {
			l.cache.SetBars(symbol, l.timeframe, start, end, bars)
		}
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s between %s and %s", symbol,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return models.SeriesFromBars(symbol, bars), nil
}
