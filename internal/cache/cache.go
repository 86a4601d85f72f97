package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/TruWeaveTrader/pairs-gym/internal/models"
)

// Cache provides in-memory caching for historical market data
type Cache struct {
	bars  *gocache.Cache
	pairs *gocache.Cache
	ttl   time.Duration
}

// NewCache creates a new cache instance
func NewCache(ttl time.Duration) *Cache {
	// Use go-cache with default expiration and cleanup interval
	return &Cache{
		bars:  gocache.New(ttl, ttl*2),
		pairs: gocache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// barSpan is one fetch of a symbol's bars together with the range it covered
type barSpan struct {
	start time.Time
	end   time.Time
	bars  []*models.Bar
}

// SpanKey identifies the bars held for one symbol and timeframe
func SpanKey(symbol, timeframe string) string {
	return fmt.Sprintf("%s|%s", strings.ToUpper(symbol), timeframe)
}

// PairKey identifies one aligned pair request
func PairKey(symbolA, symbolB, timeframe string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", SpanKey(symbolA+"/"+symbolB, timeframe),
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

// GetBars returns the cached bars inside [start, end] when an earlier fetch covered that range
func (c *Cache) GetBars(symbol, timeframe string, start, end time.Time) ([]*models.Bar, bool) {
	val, found := c.bars.Get(SpanKey(symbol, timeframe))
	if !found {
		return nil, false
	}
	span, ok := val.(*barSpan)
	if !ok || start.Before(span.start) || end.After(span.end) {
		return nil, false
	}

	bars := make([]*models.Bar, 0, len(span.bars))
	for _, bar := range span.bars {
		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, true
}

// SetBars caches bars fetched over [start, end]. A narrower fetch never replaces a wider one.
func (c *Cache) SetBars(symbol, timeframe string, start, end time.Time, bars []*models.Bar) {
	key := SpanKey(symbol, timeframe)
	if val, found := c.bars.Get(key); found {
		if span, ok := val.(*barSpan); ok && !start.Before(span.start) && !end.After(span.end) {
			return
		}
	}
	c.bars.Set(key, &barSpan{start: start, end: end, bars: bars}, c.ttl)
}

// GetPair retrieves a cached aligned pair
func (c *Cache) GetPair(key string) (*models.PairSeries, bool) {
	if val, found := c.pairs.Get(key); found {
		if pair, ok := val.(*models.PairSeries); ok {
			return pair, true
		}
	}
	return nil, false
}

// SetPair caches an aligned pair
func (c *Cache) SetPair(key string, pair *models.PairSeries) {
	c.pairs.Set(key, pair, c.ttl)
}

// Clear removes all cached data
func (c *Cache) Clear() {
	c.bars.Flush()
	c.pairs.Flush()
}

// Stats returns cache statistics
type Stats struct {
	BarSetCount int
	PairCount   int
}

// GetStats returns current cache statistics
func (c *Cache) GetStats() Stats {
	return Stats{
		BarSetCount: c.bars.ItemCount(),
		PairCount:   c.pairs.ItemCount(),
	}
}
