package exchange

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"CryptoScorer/internal/model"
)

// ErrNoPrice is returned when no price is available to size or value an order.
var ErrNoPrice = errors.New("no price available")

// Exchange is the trading venue the bot acts on.
type Exchange interface {
	Name() string
	// PlaceOrder turns a nonzero composite score into an order. A nil
	// OrderInfo with a nil error means the order was too small to place.
	PlaceOrder(ctx context.Context, series model.Series, score float64) (*model.OrderInfo, error)
	// GetBalance returns base and quote holdings; valuation is left to the caller.
	GetBalance(ctx context.Context) (*model.Balance, error)
	GetTickerPrice(ctx context.Context, pair string) (float64, error)
}

// Sizing holds the rounding and limit rules shared by every venue.
type Sizing struct {
	BasePrecision  int32
	QuotePrecision int32
	FeeRate        float64
	MinOrderVolume float64
}

// Action maps the sign of a score to an order direction.
func Action(score float64) model.OrderAction {
	if score < 0 {
		return model.ActionSell
	}
	return model.ActionBuy
}

// Volume returns the base volume to trade for score at price, given the
// available base and quote. Buys spend |score| of the quote balance with the
// fee included; sells give up |score| of the base balance. Volumes are
// truncated to BasePrecision. Zero means nothing should be placed.
func (s Sizing) Volume(score, price, base, quote float64) float64 {
	if score == 0 || price <= 0 {
		return 0
	}
	fraction := decimal.NewFromFloat(math.Min(math.Abs(score), 1))

	var vol decimal.Decimal
	if score > 0 {
		spend := decimal.NewFromFloat(quote).Mul(fraction)
		unit := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(1 + s.FeeRate))
		vol = spend.DivRound(unit, s.BasePrecision+8)
	} else {
		vol = decimal.NewFromFloat(base).Mul(fraction)
	}
	vol = vol.Truncate(s.BasePrecision)

	f, _ := vol.Float64()
	if f <= 0 || f < s.MinOrderVolume {
		return 0
	}
	return f
}

// Cost returns volume*price rounded to QuotePrecision, and the fee on it.
func (s Sizing) Cost(volume, price float64) (cost, fee float64) {
	c := decimal.NewFromFloat(volume).Mul(decimal.NewFromFloat(price)).Round(s.QuotePrecision)
	f := c.Mul(decimal.NewFromFloat(s.FeeRate)).Round(s.QuotePrecision)
	cost, _ = c.Float64()
	fee, _ = f.Float64()
	return cost, fee
}

// ValueIn values a balance in the quote currency at price.
func ValueIn(b *model.Balance, price float64, precision int32) float64 {
	v := decimal.NewFromFloat(b.BaseBalance).Mul(decimal.NewFromFloat(price)).
		Add(decimal.NewFromFloat(b.QuoteBalance)).Round(precision)
	f, _ := v.Float64()
	return f
}
