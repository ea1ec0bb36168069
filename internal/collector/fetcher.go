package collector

import (
	"context"
	"time"

	"CryptoScorer/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to count of the most recent bars of the given
	// period length, in any order. The last one may still be forming.
	FetchBars(ctx context.Context, symbol string, interval time.Duration, count int) ([]model.Bar, error)
	Name() string
}
