package strategy

import (
	"fmt"
	"math"

	"CryptoScorer/internal/model"
)

// Composite is a weighted combination of score functions, resolved once from
// configuration and then evaluated against any series.
type Composite struct {
	entries []boundEntry
}

type boundEntry struct {
	name   string
	fn     ScoreFunc
	weight float64
}

// Combine resolves every entry against reg. Unknown names and malformed args
// fail here rather than on first evaluation.
func Combine(reg *Registry, entries []model.ScoreEntry) (*Composite, error) {
	c := &Composite{entries: make([]boundEntry, 0, len(entries))}
	for i, e := range entries {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return nil, fmt.Errorf("scoring entry %d: %w: weight %v is not finite", i, ErrBadArgs, e.Weight)
		}
		fn, err := reg.Build(e)
		if err != nil {
			return nil, fmt.Errorf("scoring entry %d: %w", i, err)
		}
		c.entries = append(c.entries, boundEntry{name: e.Function, fn: fn, weight: e.Weight})
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Composite) Len() int { return len(c.entries) }

// Evaluate scores the last bar of the series.
func (c *Composite) Evaluate(series model.Series) (float64, error) {
	return c.EvaluateAt(series, series.LastIndex())
}

// EvaluateAt returns the weighted sum of every entry at index, rounded to two
// decimals and clamped to [-1, 1]. The first failing entry aborts the evaluation.
func (c *Composite) EvaluateAt(series model.Series, index int) (float64, error) {
	sig, err := c.Breakdown(series, index)
	if err != nil {
		return 0, err
	}
	return sig.Score, nil
}

// Breakdown is EvaluateAt with the per-entry contributions kept.
func (c *Composite) Breakdown(series model.Series, index int) (*model.Signal, error) {
	sig := &model.Signal{Factors: make([]model.FactorScore, 0, len(c.entries))}
	if index >= 0 && index < series.Len() {
		sig.Timestamp = series[index].Timestamp
		sig.Price = series[index].Close
	}

	total := 0.0
	for _, e := range c.entries {
		raw, err := e.fn(series, index)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		weighted := raw * e.weight
		total += weighted
		sig.Factors = append(sig.Factors, model.FactorScore{
			Name:     e.name,
			RawScore: raw,
			Weight:   e.weight,
			Weighted: weighted,
		})
	}
	if math.IsNaN(total) {
		return nil, fmt.Errorf("composite score is NaN at index %d", index)
	}
	sig.Score = finalize(total)
	return sig, nil
}

// finalize rounds to two decimals with ties toward +Inf, then clamps to [-1, 1].
func finalize(total float64) float64 {
	if math.IsInf(total, 0) {
		return math.Copysign(1, total)
	}
	rounded := math.Floor(total*100+0.5) / 100
	switch {
	case rounded > 1:
		return 1
	case rounded < -1:
		return -1
	}
	return rounded
}
