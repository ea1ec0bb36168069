package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"CryptoScorer/internal/model"
)

// AlpacaExchange trades a single pair through the Alpaca trading API.
type AlpacaExchange struct {
	Sizing
	Pair       string
	ForceMaker bool
	trading    *alpaca.Client
	data       *marketdata.Client
}

// NewAlpacaExchange creates a client for pair (e.g. "BTC/USD"). Empty URLs
// keep the client defaults.
func NewAlpacaExchange(apiKey, apiSecret, baseURL, dataURL, pair string, forceMaker bool, sizing Sizing) *AlpacaExchange {
	dataOpts := marketdata.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}
	return &AlpacaExchange{
		Sizing:     sizing,
		Pair:       pair,
		ForceMaker: forceMaker,
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		data: marketdata.NewClient(dataOpts),
	}
}

func (a *AlpacaExchange) Name() string { return "alpaca" }

func (a *AlpacaExchange) isCrypto() bool { return strings.Contains(a.Pair, "/") }

func (a *AlpacaExchange) PlaceOrder(ctx context.Context, series model.Series, score float64) (*model.OrderInfo, error) {
	price, err := a.GetTickerPrice(ctx, a.Pair)
	if err != nil {
		if last, ok := series.Last(); ok {
			price = last.Close
		} else {
			return nil, err
		}
	}
	bal, err := a.GetBalance(ctx)
	if err != nil {
		return nil, err
	}

	volume := a.Volume(score, price, bal.BaseBalance, bal.QuoteBalance)
	if volume == 0 {
		return nil, nil
	}

	qty := decimal.NewFromFloat(volume)
	req := alpaca.PlaceOrderRequest{
		Symbol:      a.Pair,
		Qty:         &qty,
		Side:        alpaca.Buy,
		Type:        alpaca.Market,
		TimeInForce: alpaca.GTC,
	}
	if Action(score) == model.ActionSell {
		req.Side = alpaca.Sell
	}
	if !a.isCrypto() {
		req.TimeInForce = alpaca.Day
	}
	if a.ForceMaker {
		limit := decimal.NewFromFloat(price).Round(a.QuotePrecision)
		req.Type = alpaca.Limit
		req.LimitPrice = &limit
	}

	order, err := a.trading.PlaceOrder(req)
	if err != nil {
		return nil, fmt.Errorf("alpaca place order: %w", err)
	}
	if order.FilledAvgPrice != nil && !order.FilledAvgPrice.IsZero() {
		price, _ = order.FilledAvgPrice.Float64()
	}
	cost, _ := a.Cost(volume, price)
	return &model.OrderInfo{
		TxID:   order.ID,
		Price:  price,
		Volume: volume,
		Cost:   cost,
	}, nil
}

func (a *AlpacaExchange) GetBalance(_ context.Context) (*model.Balance, error) {
	acct, err := a.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("alpaca account: %w", err)
	}
	quote, _ := acct.Cash.Float64()

	var base float64
	pos, err := a.trading.GetPosition(strings.ReplaceAll(a.Pair, "/", ""))
	if err != nil {
		var apiErr *alpaca.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return nil, fmt.Errorf("alpaca position: %w", err)
		}
	} else {
		base, _ = pos.Qty.Float64()
	}
	return &model.Balance{BaseBalance: base, QuoteBalance: quote}, nil
}

func (a *AlpacaExchange) GetTickerPrice(_ context.Context, pair string) (float64, error) {
	if strings.Contains(pair, "/") {
		trade, err := a.data.GetLatestCryptoTrade(pair, marketdata.GetLatestCryptoTradeRequest{})
		if err != nil {
			return 0, fmt.Errorf("alpaca latest crypto trade: %w", err)
		}
		if trade == nil {
			return 0, ErrNoPrice
		}
		return trade.Price, nil
	}
	trade, err := a.data.GetLatestTrade(pair, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, fmt.Errorf("alpaca latest trade: %w", err)
	}
	if trade == nil {
		return 0, ErrNoPrice
	}
	return trade.Price, nil
}
