package scheduler

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"CryptoScorer/internal/collector"
	"CryptoScorer/internal/exchange"
	"CryptoScorer/internal/model"
	"CryptoScorer/internal/notifier"
	"CryptoScorer/internal/publisher"
	"CryptoScorer/internal/recorder"
	"CryptoScorer/internal/strategy"
)

func TestPeriodScheduleAlignment(t *testing.T) {
	p := newPeriodSchedule(time.Hour, 4)
	now := time.Date(2024, 1, 1, 10, 7, 30, 0, time.UTC)

	first := p.Next(now)
	if want := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC); !first.Equal(want) {
		t.Fatalf("first = %v, want %v", first, want)
	}
	second := p.Next(first)
	if want := time.Date(2024, 1, 1, 11, 15, 0, 0, time.UTC); !second.Equal(want) {
		t.Errorf("second = %v, want %v", second, want)
	}
	// A late wake-up still lands on the next check boundary.
	third := p.Next(second.Add(40 * time.Millisecond))
	if want := time.Date(2024, 1, 1, 11, 30, 0, 0, time.UTC); !third.Equal(want) {
		t.Errorf("third = %v, want %v", third, want)
	}
}

func TestNextBoundaryOnBoundary(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := nextBoundary(at, time.Hour); !got.Equal(at.Add(time.Hour)) {
		t.Errorf("nextBoundary = %v, want strictly after %v", got, at)
	}
}

func TestOnPeriodBoundary(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"exact boundary", base, true},
		{"slightly late", base.Add(250 * time.Millisecond), true},
		{"first check", base.Add(15 * time.Minute), false},
		{"late check", base.Add(45*time.Minute + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := onPeriodBoundary(tt.at, time.Hour, 15*time.Minute); got != tt.want {
				t.Errorf("onPeriodBoundary(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureNotifier) Notify(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

type capturePublisher struct {
	events []publisher.Event
}

func (c *capturePublisher) Publish(_ context.Context, evt publisher.Event) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

// fixedComposite scores every series with the given value.
func fixedComposite(t *testing.T, score float64) *strategy.Composite {
	t.Helper()
	reg := strategy.NewRegistry()
	reg.Register("fixed", func(_ []any) (strategy.ScoreFunc, error) {
		return func(_ model.Series, _ int) (float64, error) { return score, nil }, nil
	})
	c, err := strategy.Combine(reg, []model.ScoreEntry{{Function: "fixed", Weight: 1}})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	return c
}

type fixture struct {
	sched *Scheduler
	paper *exchange.PaperExchange
	rec   *recorder.SQLiteRecorder
	note  *captureNotifier
	pub   *capturePublisher
}

func newFixture(t *testing.T, score float64) *fixture {
	t.Helper()
	dir := t.TempDir()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	bars := make([]model.Bar, 5)
	for i := range bars {
		c := float64(100 + i)
		bars[i] = model.Bar{
			Timestamp: now.Add(time.Duration(i-5) * time.Hour).UnixMilli(),
			Open:      c, High: c, Low: c, Close: c,
		}
	}
	col := collector.NewCollector(&collector.MockFetcher{Bars: bars}, "BTC-USD", time.Hour, 10)
	col.Now = func() time.Time { return now }

	sizing := exchange.Sizing{BasePrecision: 4, QuotePrecision: 2, MinOrderVolume: 0.0001}
	paper, err := exchange.NewPaperExchange(filepath.Join(dir, "paper.json"), sizing, 0, 1000, nil)
	if err != nil {
		t.Fatalf("NewPaperExchange: %v", err)
	}
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })

	note := &captureNotifier{}
	pub := &capturePublisher{}
	opts := Options{
		Pair:             "BTC-USD",
		BaseAsset:        "BTC",
		QuoteAsset:       "USD",
		PeriodInterval:   time.Hour,
		ChecksPerPeriod:  4,
		LogHoldDecisions: true,
		ValueCurrency:    "USD",
		QuotePrecision:   2,
	}
	s := NewScheduler(context.Background(), opts, col, fixedComposite(t, score), paper, rec, note, pub, nil)
	s.Now = func() time.Time { return now }
	return &fixture{sched: s, paper: paper, rec: rec, note: note, pub: pub}
}

func TestTickBuys(t *testing.T) {
	f := newFixture(t, 0.5)
	sig, err := f.sched.Tick(context.Background(), false)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if sig.Score != 0.5 || sig.Price != 104 || sig.IncludesLive {
		t.Errorf("signal = %+v", sig)
	}

	n, err := f.rec.CountOrders()
	if err != nil || n != 1 {
		t.Fatalf("orders recorded = %d, %v", n, err)
	}
	if len(f.note.msgs) != 1 || !strings.Contains(f.note.msgs[0], "Bought 4.8076 BTC-USD @ 104 (0.5) [2024-01-01 12:00:00]") {
		t.Errorf("notifications = %q", f.note.msgs)
	}

	bal, err := f.rec.LatestBalance()
	if err != nil || bal == nil {
		t.Fatalf("LatestBalance = %v, %v", bal, err)
	}
	if bal.ValueCurrency != "USD" || bal.TotalValue != 1000 {
		t.Errorf("balance = %+v", bal)
	}

	if len(f.pub.events) != 1 || f.pub.events[0].Order == nil || f.pub.events[0].Order.Action != model.ActionBuy {
		t.Errorf("published events = %+v", f.pub.events)
	}
}

func TestTickHolds(t *testing.T) {
	f := newFixture(t, 0)
	sig, err := f.sched.Tick(context.Background(), true)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !sig.Hold() || !sig.IncludesLive {
		t.Errorf("signal = %+v", sig)
	}
	if n, _ := f.rec.CountOrders(); n != 0 {
		t.Errorf("orders recorded on hold = %d", n)
	}
	if len(f.note.msgs) != 0 {
		t.Errorf("unexpected notifications: %q", f.note.msgs)
	}
	if bal, _ := f.rec.LatestBalance(); bal == nil || bal.TotalValue != 1000 {
		t.Errorf("balance snapshot = %+v", bal)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Order != nil {
		t.Errorf("published events = %+v", f.pub.events)
	}
}

func TestTickSellWithoutHoldings(t *testing.T) {
	f := newFixture(t, -1)
	if _, err := f.sched.Tick(context.Background(), false); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if n, _ := f.rec.CountOrders(); n != 0 {
		t.Errorf("sell with no base placed %d orders", n)
	}
}

func TestTickLogsSkippedOrderAsHold(t *testing.T) {
	tests := []struct {
		name    string
		logHold bool
		want    bool
	}{
		{"enabled", true, true},
		{"disabled", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			t.Cleanup(func() { log.SetOutput(os.Stderr) })

			// Selling with no base holdings places nothing.
			f := newFixture(t, -1)
			f.sched.Options.LogHoldDecisions = tt.logHold
			if _, err := f.sched.Tick(context.Background(), false); err != nil {
				t.Fatalf("Tick: %v", err)
			}
			if got := strings.Contains(buf.String(), "Held BTC-USD @ 104 (-1)"); got != tt.want {
				t.Errorf("hold line logged = %v, want %v; log:\n%s", got, tt.want, buf.String())
			}
		})
	}
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, 0.5)

	reply := f.sched.HandleCommand("/score")
	if !strings.Contains(reply, "fixed: +0.500") || !strings.Contains(reply, "Composite: +0.50") {
		t.Errorf("/score reply = %q", reply)
	}
	if n, _ := f.rec.CountOrders(); n != 0 {
		t.Errorf("/score must not trade, orders = %d", n)
	}

	reply = f.sched.HandleCommand("/balance@ScorerBot")
	if !strings.Contains(reply, "Total: 1000.00 USD") {
		t.Errorf("/balance reply = %q", reply)
	}

	if got := f.sched.HandleCommand("/whatever"); got != notifier.HelpText {
		t.Errorf("unknown command reply = %q", got)
	}
	if got := f.sched.HandleCommand("   "); got != "" {
		t.Errorf("blank command reply = %q", got)
	}
}
