package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"CryptoScorer/internal/model"
)

// BarRecord is the Parquet schema for stored bars.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetFetcher serves bars from a Parquet file, for replays and offline runs.
type ParquetFetcher struct {
	Path string
}

func (f *ParquetFetcher) Name() string { return "parquet" }

// FetchBars returns the last count bars of symbol. Records with an empty
// symbol match any symbol. The interval is taken as given by the file.
func (f *ParquetFetcher) FetchBars(_ context.Context, symbol string, _ time.Duration, count int) ([]model.Bar, error) {
	all, err := ReadBars(f.Path, symbol)
	if err != nil {
		return nil, err
	}
	if count > 0 && len(all) > count {
		all = all[len(all)-count:]
	}
	return all, nil
}

// ReadBars loads the bars of symbol from a Parquet file in chronological order.
func ReadBars(path, symbol string) (model.Series, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		if r.Symbol != "" && symbol != "" && r.Symbol != symbol {
			continue
		}
		bars = append(bars, model.Bar{
			Timestamp: r.Timestamp,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return normalize(bars), nil
}

// WriteBars stores bars for symbol at path, replacing any existing file.
func WriteBars(path, symbol string, bars []model.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:    symbol,
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
