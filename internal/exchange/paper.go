package exchange

import (
	"context"
	"fmt"
	"log"
	"sync"

	"CryptoScorer/internal/model"
)

// TickerFunc looks up the current price of a pair.
type TickerFunc func(ctx context.Context, pair string) (float64, error)

// PaperExchange simulates fills at the last close against a JSON-backed
// account. It is safe for concurrent use.
type PaperExchange struct {
	Sizing
	mu       sync.Mutex
	state    *PaperState
	filePath string
	ticker   TickerFunc
}

// NewPaperExchange loads or initializes the paper account at filePath.
// ticker may be nil, in which case the last fill price is used for quotes.
func NewPaperExchange(filePath string, sizing Sizing, initialBase, initialQuote float64, ticker TickerFunc) (*PaperExchange, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load paper state: %w", err)
	}

	// Initialize if fresh state
	if !state.Initialized {
		state.Base = initialBase
		state.Quote = initialQuote
		state.Initialized = true
	}

	p := &PaperExchange{Sizing: sizing, state: state, filePath: filePath, ticker: ticker}
	if err := p.save(); err != nil {
		return nil, fmt.Errorf("save paper state: %w", err)
	}
	return p, nil
}

func (p *PaperExchange) Name() string { return "paper" }

// State returns a copy of the current account.
func (p *PaperExchange) State() PaperState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.state
}

func (p *PaperExchange) PlaceOrder(_ context.Context, series model.Series, score float64) (*model.OrderInfo, error) {
	last, ok := series.Last()
	if !ok || last.Close <= 0 {
		return nil, ErrNoPrice
	}
	price := last.Close

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.LastPrice = price
	volume := p.Volume(score, price, p.state.Base, p.state.Quote)
	if volume == 0 {
		return nil, nil
	}
	cost, fee := p.Cost(volume, price)

	if Action(score) == model.ActionBuy {
		if cost+fee > p.state.Quote {
			return nil, nil
		}
		p.state.Quote -= cost + fee
		p.state.Base += volume
	} else {
		p.state.Base -= volume
		p.state.Quote += cost - fee
	}
	p.state.FeesPaid += fee
	p.state.OrderCount++

	if err := p.save(); err != nil {
		log.Printf("[ERROR] failed to save paper state: %v", err)
	}

	return &model.OrderInfo{
		TxID:   fmt.Sprintf("paper-%d", p.state.OrderCount),
		Price:  price,
		Volume: volume,
		Cost:   cost,
	}, nil
}

func (p *PaperExchange) GetBalance(_ context.Context) (*model.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &model.Balance{
		BaseBalance:  p.state.Base,
		QuoteBalance: p.state.Quote,
		UpdatedAt:    p.state.UpdatedAt,
	}, nil
}

func (p *PaperExchange) GetTickerPrice(ctx context.Context, pair string) (float64, error) {
	if p.ticker != nil {
		price, err := p.ticker(ctx, pair)
		if err == nil {
			p.mu.Lock()
			p.state.LastPrice = price
			p.mu.Unlock()
		}
		return price, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.LastPrice <= 0 {
		return 0, ErrNoPrice
	}
	return p.state.LastPrice, nil
}

func (p *PaperExchange) save() error {
	return SaveState(p.filePath, p.state)
}
