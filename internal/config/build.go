package config

import (
	"fmt"
	"time"

	"CryptoScorer/internal/collector"
	"CryptoScorer/internal/exchange"
)

// Period returns the period length as a duration.
func (c *Config) Period() time.Duration {
	return time.Duration(c.PeriodInterval) * time.Minute
}

// Fetcher builds the configured market data source.
func (c *Config) Fetcher() (collector.Fetcher, error) {
	switch c.Source.Name {
	case "yahoo":
		return collector.NewYahooFetcher(c.Proxy), nil
	case "rest":
		return collector.NewRESTFetcher(c.Source.BaseURL, c.Source.APIKey, c.Proxy), nil
	case "alpaca":
		return collector.NewAlpacaFetcher(c.Alpaca.APIKey, c.Alpaca.APISecret, c.Alpaca.DataURL), nil
	case "parquet":
		return &collector.ParquetFetcher{Path: c.Source.ParquetPath}, nil
	case "mock":
		return &collector.MockFetcher{Price: 50000}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", c.Source.Name)
	}
}

// Sizing returns the order sizing rules of the configured exchange.
func (c *Config) Sizing() exchange.Sizing {
	return exchange.Sizing{
		BasePrecision:  c.Exchange.BasePrecision,
		QuotePrecision: c.Exchange.QuotePrecision,
		FeeRate:        c.Exchange.FeeRate,
		MinOrderVolume: c.Exchange.MinOrderVolume,
	}
}
