package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"CryptoScorer/internal/model"
)

func minuteBars(start time.Time, closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10,
		}
	}
	return bars
}

func TestCollectDropsFormingBar(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 1, 2, 3, 4)
	// The last bar opened at 00:03 and closes at 00:04.
	now := start.Add(3*time.Minute + 30*time.Second)

	tests := []struct {
		name    string
		include bool
		want    int
		last    float64
	}{
		{"drop forming", false, 3, 3},
		{"include forming", true, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(&MockFetcher{Bars: bars}, "BTC-USD", time.Minute, 10)
			c.Now = func() time.Time { return now }
			series, err := c.Collect(context.Background(), tt.include)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if len(series) != tt.want {
				t.Fatalf("len = %d, want %d", len(series), tt.want)
			}
			if got := series[len(series)-1].Close; got != tt.last {
				t.Errorf("last close = %v, want %v", got, tt.last)
			}
		})
	}
}

func TestCollectKeepsClosedBar(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 1, 2, 3)
	c := NewCollector(&MockFetcher{Bars: bars}, "BTC-USD", time.Minute, 10)
	c.Now = func() time.Time { return start.Add(3 * time.Minute) }

	series, err := c.Collect(context.Background(), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(series) != 3 {
		t.Errorf("len = %d, want 3", len(series))
	}
}

func TestCollectSortsDedupesAndTrims(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 1, 2, 3, 4, 5)
	shuffled := []model.Bar{bars[4], bars[0], bars[2], bars[1], bars[3], bars[2]}
	shuffled[5].Close = 33

	c := NewCollector(&MockFetcher{Bars: shuffled}, "BTC-USD", time.Minute, 3)
	c.Now = func() time.Time { return start.Add(time.Hour) }

	series, err := c.Collect(context.Background(), false)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []float64{33, 4, 5}
	if len(series) != len(want) {
		t.Fatalf("len = %d, want %d", len(series), len(want))
	}
	for i, w := range want {
		if series[i].Close != w {
			t.Errorf("series[%d].Close = %v, want %v", i, series[i].Close, w)
		}
	}
}

func TestCollectEmpty(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: []model.Bar{}}, "BTC-USD", time.Minute, 3)
	if _, err := c.Collect(context.Background(), true); err == nil {
		t.Error("expected error for empty fetch")
	}
}

func TestMockFetcherGenerates(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	m := &MockFetcher{Price: 100, Now: func() time.Time { return now }}
	bars, err := m.FetchBars(context.Background(), "X", time.Hour, 5)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) != 5 {
		t.Fatalf("len = %d, want 5", len(bars))
	}
	if got, want := bars[4].Timestamp, now.Truncate(time.Hour).UnixMilli(); got != want {
		t.Errorf("last timestamp = %d, want %d", got, want)
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp-bars[i-1].Timestamp != time.Hour.Milliseconds() {
			t.Errorf("bars %d and %d not one hour apart", i-1, i)
		}
	}
}

func TestRESTFetcher(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"timestamp":60000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":7}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchBars(context.Background(), "BTC-USD", 15*time.Minute, 50)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(bars) != 1 || bars[0].Timestamp != 60000 || bars[0].Close != 1.5 || bars[0].Volume != 7 {
		t.Errorf("unexpected bars: %+v", bars)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotQuery != "interval=15m&limit=50&symbol=BTC-USD" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestRESTFetcherStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "")
	if _, err := f.FetchBars(context.Background(), "X", time.Minute, 1); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestYahooFetcherAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1m" {
			t.Errorf("interval = %q, want 1m", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[0,60,120,180],
			"indicators":{"quote":[{"open":[1,2,3,4],"high":[2,5,4,5],"low":[0.5,1,2,3],
			"close":[2,3,4,5],"volume":[1,1,1,1]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), "BTC-USD", 2*time.Minute, 10)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	want := []model.Bar{
		{Timestamp: 0, Open: 1, High: 5, Low: 0.5, Close: 3, Volume: 2},
		{Timestamp: 120000, Open: 3, High: 5, Low: 2, Close: 5, Volume: 2},
	}
	if len(bars) != len(want) {
		t.Fatalf("len = %d, want %d", len(bars), len(want))
	}
	for i := range want {
		if bars[i] != want[i] {
			t.Errorf("bars[%d] = %+v, want %+v", i, bars[i], want[i])
		}
	}
}

func TestAggregate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 1, 2, 3, 4, 5)
	got := Aggregate(bars, 5*time.Minute)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	b := got[0]
	if b.Open != 1 || b.Close != 5 || b.High != 6 || b.Low != 0 || b.Volume != 50 {
		t.Errorf("aggregate = %+v", b)
	}
	if Aggregate(nil, time.Minute) != nil {
		t.Error("empty input should aggregate to nil")
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars", "btc.parquet")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := minuteBars(start, 10, 11, 12, 13)

	if err := WriteBars(path, "BTC-USD", bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	f := &ParquetFetcher{Path: path}
	got, err := f.FetchBars(context.Background(), "BTC-USD", time.Minute, 2)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(got) != 2 || got[0] != bars[2] || got[1] != bars[3] {
		t.Errorf("got %+v, want last two of %+v", got, bars)
	}

	other, err := ReadBars(path, "ETH-USD")
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ReadBars for another symbol returned %d bars", len(other))
	}
}

func TestAlpacaTimeFrame(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     string
	}{
		{time.Minute, "1Min"},
		{15 * time.Minute, "15Min"},
		{2 * time.Hour, "2Hour"},
		{24 * time.Hour, "1Day"},
	}
	for _, tt := range tests {
		if got := alpacaTimeFrame(tt.interval).String(); got != tt.want {
			t.Errorf("alpacaTimeFrame(%v) = %q, want %q", tt.interval, got, tt.want)
		}
	}
}
