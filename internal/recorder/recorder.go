package recorder

import "CryptoScorer/internal/model"

// Recorder persists orders, balance snapshots and evaluated signals.
type Recorder interface {
	RecordOrder(order *model.Order) error
	RecordBalance(balance *model.Balance) error
	RecordSignal(pair string, signal *model.Signal) error
	// LatestBalance returns the most recent snapshot, or nil if none exists.
	LatestBalance() (*model.Balance, error)
	Close() error
}
