package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"CryptoScorer/internal/collector"
	"CryptoScorer/internal/exchange"
	"CryptoScorer/internal/metrics"
	"CryptoScorer/internal/model"
	"CryptoScorer/internal/notifier"
	"CryptoScorer/internal/publisher"
	"CryptoScorer/internal/recorder"
	"CryptoScorer/internal/strategy"
)

// Options are the trading parameters of the loop.
type Options struct {
	Pair             string
	BaseAsset        string
	QuoteAsset       string
	PeriodInterval   time.Duration
	ChecksPerPeriod  int
	ForceMaker       bool
	LogHoldDecisions bool
	ValueCurrency    string
	QuotePrecision   int32
}

// Scheduler runs the evaluate-and-trade loop on period-aligned ticks.
type Scheduler struct {
	Cron      *cron.Cron
	Options   Options
	Collector *collector.Collector
	Composite *strategy.Composite
	Exchange  exchange.Exchange
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Publisher publisher.Publisher
	Metrics   *metrics.Metrics
	Ctx       context.Context
	Now       func() time.Time

	mu sync.Mutex // serializes ticks and commands
}

// NewScheduler creates a new Scheduler. Notifier, Publisher and Metrics
// default to no-op implementations when nil.
func NewScheduler(ctx context.Context, opts Options, col *collector.Collector, comp *strategy.Composite,
	ex exchange.Exchange, rec recorder.Recorder, n notifier.Notifier, pub publisher.Publisher, m *metrics.Metrics) *Scheduler {
	if n == nil {
		n = notifier.LogNotifier{}
	}
	if pub == nil {
		pub = publisher.NoopPublisher{}
	}
	if m == nil {
		m = metrics.NewMetrics()
	}
	if opts.ChecksPerPeriod <= 0 {
		opts.ChecksPerPeriod = 1
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Options:   opts,
		Collector: col,
		Composite: comp,
		Exchange:  ex,
		Recorder:  rec,
		Notifier:  n,
		Publisher: pub,
		Metrics:   m,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the period-aligned tick to the cron scheduler.
func (s *Scheduler) Register() {
	sched := newPeriodSchedule(s.Options.PeriodInterval, s.Options.ChecksPerPeriod)
	s.Cron.Schedule(sched, cron.FuncJob(s.scheduledTick))
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	next := nextBoundary(s.Now(), s.Options.PeriodInterval)
	log.Printf("[INFO] scheduler started, first evaluation at %s", next.Format(time.RFC3339))
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) step() time.Duration {
	return s.Options.PeriodInterval / time.Duration(s.Options.ChecksPerPeriod)
}

func (s *Scheduler) scheduledTick() {
	include := !onPeriodBoundary(s.Now(), s.Options.PeriodInterval, s.step())
	if _, err := s.Tick(s.Ctx, include); err != nil {
		log.Printf("[ERROR] tick: %v", err)
	}
}

// Tick runs one evaluation: collect, score, trade on a nonzero score, then
// snapshot the balance and publish the signal. Failures to record, notify
// or publish are logged and do not fail the tick.
func (s *Scheduler) Tick(ctx context.Context, includeCurrentPeriod bool) (*model.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { s.Metrics.EvalDuration.Observe(time.Since(start).Seconds()) }()

	sig, series, err := s.evaluate(ctx, includeCurrentPeriod)
	if err != nil {
		return nil, err
	}
	s.Metrics.EvaluationsTotal.Inc()
	s.Metrics.LastScore.Set(sig.Score)
	for _, f := range sig.Factors {
		s.Metrics.FactorScore.WithLabelValues(f.Name).Set(f.Weighted)
	}
	if err := s.Recorder.RecordSignal(s.Options.Pair, sig); err != nil {
		log.Printf("[ERROR] record signal: %v", err)
	}

	var order *model.Order
	var orderErr error
	if sig.Hold() {
		s.Metrics.HoldsTotal.Inc()
		s.logHold(sig)
	} else {
		order, orderErr = s.placeOrder(ctx, series, sig)
		if orderErr != nil {
			s.Metrics.ErrorsTotal.WithLabelValues("order").Inc()
		}
	}

	if _, err := s.snapshotBalance(ctx, sig.Price); err != nil {
		s.Metrics.ErrorsTotal.WithLabelValues("balance").Inc()
		log.Printf("[ERROR] balance snapshot: %v", err)
	}

	if err := s.Publisher.Publish(ctx, publisher.NewEvent(s.Options.Pair, sig, order)); err != nil {
		s.Metrics.ErrorsTotal.WithLabelValues("publish").Inc()
		log.Printf("[WARN] publish signal: %v", err)
	}
	return sig, orderErr
}

// evaluate collects the series and computes the breakdown at its last bar.
func (s *Scheduler) evaluate(ctx context.Context, includeCurrentPeriod bool) (*model.Signal, model.Series, error) {
	series, err := s.Collector.Collect(ctx, includeCurrentPeriod)
	if err != nil {
		s.Metrics.ErrorsTotal.WithLabelValues("collect").Inc()
		return nil, nil, fmt.Errorf("collect: %w", err)
	}
	sig, err := s.Composite.Breakdown(series, series.LastIndex())
	if err != nil {
		s.Metrics.ErrorsTotal.WithLabelValues("evaluate").Inc()
		return nil, nil, fmt.Errorf("evaluate: %w", err)
	}
	sig.IncludesLive = includeCurrentPeriod
	return sig, series, nil
}

func (s *Scheduler) placeOrder(ctx context.Context, series model.Series, sig *model.Signal) (*model.Order, error) {
	info, err := s.Exchange.PlaceOrder(ctx, series, sig.Score)
	if err != nil {
		return nil, fmt.Errorf("place order on %s: %w", s.Exchange.Name(), err)
	}
	if info == nil {
		// Volume below the exchange minimum counts as a hold.
		s.logHold(sig)
		return nil, nil
	}

	now := s.Now().UnixMilli()
	action := exchange.Action(sig.Score)
	orderType := model.OrderMarket
	if s.Options.ForceMaker {
		orderType = model.OrderLimit
	}
	order := &model.Order{
		TxID:           info.TxID,
		Exchange:       s.Exchange.Name(),
		Timestamp:      now,
		PeriodInterval: int(s.Options.PeriodInterval / time.Minute),
		Pair:           s.Options.Pair,
		Action:         action,
		Type:           orderType,
		Price:          info.Price,
		Volume:         info.Volume,
		Cost:           info.Cost,
		ForceMaker:     s.Options.ForceMaker,
		Score:          sig.Score,
		Description:    notifier.DescribeOrder(action, info.Volume, s.Options.Pair, info.Price, sig.Score, now),
	}
	log.Printf("[INFO] %s", order.Description)
	s.Metrics.OrdersTotal.WithLabelValues(string(action)).Inc()

	if err := s.Recorder.RecordOrder(order); err != nil {
		log.Printf("[ERROR] record order: %v", err)
	}
	if err := s.Notifier.Notify(ctx, notifier.FormatOrder(order)); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
	return order, nil
}

// logHold writes the hold line when hold decisions are logged.
func (s *Scheduler) logHold(sig *model.Signal) {
	if !s.Options.LogHoldDecisions {
		return
	}
	log.Printf("[INFO] Held %s @ %v (%v) [%s]", s.Options.Pair, sig.Price, sig.Score, notifier.FormatDate(s.Now().UnixMilli()))
}

// snapshotBalance values the current holdings and records them. fallback
// is used when the exchange cannot quote a price.
func (s *Scheduler) snapshotBalance(ctx context.Context, fallback float64) (*model.Balance, error) {
	bal, err := s.Exchange.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	price, err := s.Exchange.GetTickerPrice(ctx, s.Options.Pair)
	if err != nil {
		if !errors.Is(err, exchange.ErrNoPrice) {
			log.Printf("[WARN] ticker price: %v, valuing at last close", err)
		}
		price = fallback
	}

	now := s.Now()
	bal.Timestamp = now.UnixMilli()
	bal.ValueCurrency = s.Options.ValueCurrency
	bal.TotalValue = exchange.ValueIn(bal, price, s.Options.QuotePrecision)
	if bal.UpdatedAt.IsZero() {
		bal.UpdatedAt = now
	}
	s.Metrics.PortfolioValue.Set(bal.TotalValue)

	if err := s.Recorder.RecordBalance(bal); err != nil {
		log.Printf("[ERROR] record balance: %v", err)
	}
	return bal, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return ""
	}
	// Commands may arrive as "/score@BotName" in group chats.
	name, _, _ := strings.Cut(cmd[0], "@")

	switch name {
	case "/score":
		s.mu.Lock()
		sig, _, err := s.evaluate(s.Ctx, true)
		s.mu.Unlock()
		if err != nil {
			return fmt.Sprintf("❌ evaluation failed: %v", err)
		}
		return notifier.FormatSignal(s.Options.Pair, sig)
	case "/balance":
		bal, err := s.Recorder.LatestBalance()
		if err != nil {
			log.Printf("[WARN] latest balance: %v", err)
		}
		if bal == nil {
			s.mu.Lock()
			bal, err = s.snapshotBalance(s.Ctx, 0)
			s.mu.Unlock()
			if err != nil {
				return fmt.Sprintf("❌ balance unavailable: %v", err)
			}
		}
		return notifier.FormatBalance(bal, s.Options.BaseAsset, s.Options.QuoteAsset)
	default:
		return notifier.HelpText
	}
}
