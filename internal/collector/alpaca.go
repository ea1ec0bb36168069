package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"CryptoScorer/internal/model"
)

// AlpacaFetcher reads bars from the Alpaca market data API. Symbols
// containing "/" (e.g. "BTC/USD") are treated as crypto pairs.
type AlpacaFetcher struct {
	client *marketdata.Client
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher with the given credentials. An empty
// dataURL keeps the client default.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(opts),
		now:    time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// alpacaTimeFrame maps a period length to the coarsest exact Alpaca timeframe.
func alpacaTimeFrame(interval time.Duration) marketdata.TimeFrame {
	switch {
	case interval%(24*time.Hour) == 0:
		return marketdata.NewTimeFrame(int(interval/(24*time.Hour)), marketdata.Day)
	case interval%time.Hour == 0:
		return marketdata.NewTimeFrame(int(interval/time.Hour), marketdata.Hour)
	default:
		return marketdata.NewTimeFrame(int(interval/time.Minute), marketdata.Min)
	}
}

func (f *AlpacaFetcher) FetchBars(ctx context.Context, symbol string, interval time.Duration, count int) ([]model.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	end := f.now()
	// Over-fetch the window so gaps (weekends, halts) still yield count bars.
	start := end.Add(-interval * time.Duration(count) * 2)
	tf := alpacaTimeFrame(interval)

	var bars []model.Bar
	if strings.Contains(symbol, "/") {
		raw, err := f.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("GetCryptoBars: %w", err)
		}
		for _, b := range raw {
			bars = append(bars, model.Bar{
				Timestamp: b.Timestamp.UnixMilli(),
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			})
		}
	} else {
		raw, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("GetBars: %w", err)
		}
		for _, b := range raw {
			bars = append(bars, model.Bar{
				Timestamp: b.Timestamp.UnixMilli(),
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    float64(b.Volume),
			})
		}
	}
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}
