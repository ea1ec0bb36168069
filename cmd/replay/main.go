// cmd/replay evaluates the configured composite over a historical series and
// prints the signal at every bar with enough history.
//
// Usage:
//
//	go run ./cmd/replay --config=configs/config.yaml --parquet=data/btc.parquet
//	go run ./cmd/replay --save=data/btc.parquet --simulate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"CryptoScorer/internal/calculator"
	"CryptoScorer/internal/collector"
	"CryptoScorer/internal/config"
	"CryptoScorer/internal/exchange"
	"CryptoScorer/internal/model"
	"CryptoScorer/internal/notifier"
)

// options are the replay's command-line settings.
type options struct {
	ConfigPath  string
	ParquetPath string
	SavePath    string
	Count       int
	Simulate    bool
	TempRoot    string // parent of the simulation's scratch dir; "" uses os.TempDir
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Flags
	var opts options
	flag.StringVar(&opts.ConfigPath, "config", "configs/config.yaml", "Path to the YAML config")
	flag.StringVar(&opts.ParquetPath, "parquet", "", "Read bars from this Parquet file instead of the configured source")
	flag.StringVar(&opts.SavePath, "save", "", "Write the fetched bars to this Parquet file")
	flag.IntVar(&opts.Count, "count", 0, "Number of bars to load (0 = num_periods from config)")
	flag.BoolVar(&opts.Simulate, "simulate", false, "Trade each signal against a throwaway paper account")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("[FATAL] replay: %v", err)
	}
}

// run loads the series, prints one line per evaluable bar to out and, when
// simulating, trades every signal against a scratch paper account.
func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ParquetPath != "" {
		cfg.Source.Name = "parquet"
		cfg.Source.ParquetPath = opts.ParquetPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	composite, err := cfg.Composite()
	if err != nil {
		return fmt.Errorf("build composite: %w", err)
	}
	fetcher, err := cfg.Fetcher()
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	n := opts.Count
	if n <= 0 {
		n = cfg.NumPeriods
	}
	col := collector.NewCollector(fetcher, cfg.Source.Symbol, cfg.Period(), n)
	series, err := col.Collect(ctx, false)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	log.Printf("[INFO] loaded %d bars from %s", series.Len(), fetcher.Name())

	if opts.SavePath != "" {
		if err := collector.WriteBars(opts.SavePath, cfg.Source.Symbol, series); err != nil {
			return fmt.Errorf("save bars: %w", err)
		}
		log.Printf("[INFO] saved bars to %s", opts.SavePath)
	}

	var paper *exchange.PaperExchange
	if opts.Simulate {
		dir, err := os.MkdirTemp(opts.TempRoot, "replay")
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		paper, err = exchange.NewPaperExchange(filepath.Join(dir, "paper.json"), cfg.Sizing(),
			cfg.Exchange.InitialBase, cfg.Exchange.InitialQuote, nil)
		if err != nil {
			return fmt.Errorf("init paper exchange: %w", err)
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "TIME\tCLOSE\tSCORE\tACTION")
	evaluated := 0
	for i := range series {
		sig, err := composite.Breakdown(series, i)
		if errors.Is(err, calculator.ErrRange) {
			continue // not enough history yet
		}
		if err != nil {
			return fmt.Errorf("evaluate at %d: %w", i, err)
		}
		evaluated++

		action := "hold"
		if !sig.Hold() {
			action = string(exchange.Action(sig.Score))
			if paper != nil {
				info, err := paper.PlaceOrder(ctx, series[:i+1], sig.Score)
				if err != nil {
					return fmt.Errorf("simulate order at %d: %w", i, err)
				}
				if info != nil {
					action = notifier.DescribeOrder(exchange.Action(sig.Score), info.Volume, cfg.AssetPair,
						info.Price, sig.Score, sig.Timestamp)
				}
			}
		}
		fmt.Fprintf(w, "%s\t%.2f\t%+.2f\t%s\n", notifier.FormatDate(sig.Timestamp), sig.Price, sig.Score, action)
	}
	w.Flush()
	log.Printf("[INFO] evaluated %d of %d bars", evaluated, series.Len())

	if paper != nil {
		summarize(out, paper, series)
	}
	return nil
}

func summarize(out io.Writer, paper *exchange.PaperExchange, series model.Series) {
	st := paper.State()
	last, _ := series.Last()
	bal := &model.Balance{BaseBalance: st.Base, QuoteBalance: st.Quote, UpdatedAt: time.Now()}
	fmt.Fprintf(out, "\norders: %d, fees: %.2f, base: %v, quote: %.2f, value at %.2f: %.2f\n",
		st.OrderCount, st.FeesPaid, st.Base, st.Quote, last.Close, exchange.ValueIn(bal, last.Close, paper.QuotePrecision))
}
