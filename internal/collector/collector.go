package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CryptoScorer/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Now   func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval time.Duration, count int) ([]model.Bar, error) {
	if m.Bars != nil {
		return m.Bars, nil
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	return generateMockBars(m.Price, interval, count, now), nil
}

// generateMockBars produces a gently oscillating series ending with the
// period that contains now.
func generateMockBars(basePrice float64, interval time.Duration, count int, now time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	current := now.Truncate(interval)
	for i := 0; i < count; i++ {
		drift := float64((i%7)-3) * 0.002
		p := basePrice * (1 + float64(i-count/2)*0.001 + drift)
		bars[i] = model.Bar{
			Timestamp: current.Add(-time.Duration(count-1-i) * interval).UnixMilli(),
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
			Volume:    1000000,
		}
	}
	return bars
}

// Collector fetches bars for one symbol and shapes them into a Series.
type Collector struct {
	Fetcher    Fetcher
	Symbol     string
	Interval   time.Duration
	NumPeriods int
	Now        func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, interval time.Duration, numPeriods int) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Symbol:     symbol,
		Interval:   interval,
		NumPeriods: numPeriods,
		Now:        time.Now,
	}
}

// Collect returns the most recent NumPeriods bars in chronological order.
// Without includeCurrentPeriod, a last bar whose period has not closed yet is
// dropped so scores only see completed candles.
func (c *Collector) Collect(ctx context.Context, includeCurrentPeriod bool) (model.Series, error) {
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Interval, c.NumPeriods+1)
	if err != nil {
		return nil, fmt.Errorf("fetch bars from %s: %w", c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch bars from %s: no data returned", c.Fetcher.Name())
	}

	series := normalize(bars)
	if !includeCurrentPeriod {
		last := series[len(series)-1]
		if last.Time().Add(c.Interval).After(c.Now()) {
			series = series[:len(series)-1]
		}
	}
	if len(series) > c.NumPeriods {
		series = series[len(series)-c.NumPeriods:]
	}
	return series, nil
}

// normalize sorts bars by timestamp and keeps the latest copy of duplicates.
func normalize(bars []model.Bar) model.Series {
	sorted := make(model.Series, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Timestamp == b.Timestamp {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
