package recorder

import "CryptoScorer/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordOrder(_ *model.Order) error                { return nil }
func (n *NoopRecorder) RecordBalance(_ *model.Balance) error            { return nil }
func (n *NoopRecorder) RecordSignal(_ string, _ *model.Signal) error    { return nil }
func (n *NoopRecorder) LatestBalance() (*model.Balance, error)          { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
