package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CryptoScorer/internal/collector"
	"CryptoScorer/internal/config"
	"CryptoScorer/internal/exchange"
	"CryptoScorer/internal/metrics"
	"CryptoScorer/internal/notifier"
	"CryptoScorer/internal/publisher"
	"CryptoScorer/internal/recorder"
	"CryptoScorer/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CryptoScorer starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	composite, err := cfg.Composite()
	if err != nil {
		log.Fatalf("[FATAL] build composite: %v", err)
	}
	log.Printf("[INFO] %s: %d score functions, %d-minute periods, %d checks per period",
		cfg.AssetPair, composite.Len(), cfg.PeriodInterval, cfg.ChecksPerPeriod)

	// Init fetcher and collector
	fetcher, err := cfg.Fetcher()
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Source.Symbol, cfg.Period(), cfg.NumPeriods)

	// Init exchange
	var ex exchange.Exchange
	switch cfg.Exchange.Name {
	case "alpaca":
		ex = exchange.NewAlpacaExchange(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL,
			cfg.Alpaca.DataURL, cfg.AssetPair, cfg.Exchange.ForceMaker, cfg.Sizing())
	default:
		ticker := func(ctx context.Context, _ string) (float64, error) {
			series, err := col.Collect(ctx, true)
			if err != nil {
				return 0, err
			}
			last, ok := series.Last()
			if !ok {
				return 0, exchange.ErrNoPrice
			}
			return last.Close, nil
		}
		pe, err := exchange.NewPaperExchange(cfg.Exchange.StateFile, cfg.Sizing(),
			cfg.Exchange.InitialBase, cfg.Exchange.InitialQuote, ticker)
		if err != nil {
			log.Fatalf("[FATAL] init paper exchange: %v", err)
		}
		ex = pe
	}
	log.Printf("[INFO] exchange: %s", ex.Name())

	// Init notifier
	var n notifier.Notifier = notifier.LogNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init publisher
	var pub publisher.Publisher = publisher.NoopPublisher{}
	if cfg.Redis.Addr != "" {
		rp, err := publisher.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		if err != nil {
			log.Printf("[WARN] init redis publisher failed, using noop: %v", err)
		} else {
			pub = rp
			defer rp.Close()
		}
	}

	// Init metrics
	m := metrics.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(ctx)
		}()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	opts := scheduler.Options{
		Pair:             cfg.AssetPair,
		BaseAsset:        cfg.BaseAsset,
		QuoteAsset:       cfg.QuoteAsset,
		PeriodInterval:   cfg.Period(),
		ChecksPerPeriod:  cfg.ChecksPerPeriod,
		ForceMaker:       cfg.Exchange.ForceMaker,
		LogHoldDecisions: cfg.Logging.LogHoldDecisions,
		ValueCurrency:    cfg.Logging.ValueCurrency,
		QuotePrecision:   cfg.Exchange.QuotePrecision,
	}
	sched := scheduler.NewScheduler(ctx, opts, col, composite, ex, rec, n, pub, m)
	sched.Register()
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, evaluating now")
		go func() {
			if _, err := sched.Tick(ctx, true); err != nil {
				log.Printf("[ERROR] tick: %v", err)
			}
		}()
	}

	log.Println("[INFO] CryptoScorer is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] CryptoScorer stopped")
}
