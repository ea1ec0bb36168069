package model

import "time"

// OrderAction is the direction of an order.
type OrderAction string

const (
	ActionBuy  OrderAction = "buy"
	ActionSell OrderAction = "sell"
)

// OrderType is limit when maker fills are forced, market otherwise.
type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderMarket OrderType = "market"
)

// OrderInfo is what an exchange reports back after accepting an order.
type OrderInfo struct {
	TxID   string
	Price  float64
	Volume float64
	Cost   float64
}

// Order is the persisted record of a placed order.
type Order struct {
	TxID           string
	Exchange       string
	Timestamp      int64 // evaluation time, epoch millis
	PeriodInterval int   // minutes
	Pair           string
	Action         OrderAction
	Type           OrderType
	Price          float64
	Volume         float64
	Cost           float64
	ForceMaker     bool
	Score          float64
	Description    string
}

// Balance is a snapshot of the account valued in a single currency.
type Balance struct {
	Timestamp     int64
	TotalValue    float64
	ValueCurrency string
	BaseBalance   float64
	QuoteBalance  float64
	UpdatedAt     time.Time
}
