package strategy

import (
	"errors"
	"fmt"
	"sort"

	"CryptoScorer/internal/model"
)

// ErrUnknownScore reports a score entry naming no registered function.
var ErrUnknownScore = errors.New("unknown score function")

// ScoreFunc scores the bar at index with its parameters already bound.
type ScoreFunc func(series model.Series, index int) (float64, error)

// Builder binds a score entry's args into a ScoreFunc.
type Builder func(args []any) (ScoreFunc, error)

// Registry maps score function names to their builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry returns a Registry holding the built-in score functions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("candleTypeScore", buildCandleType)
	r.Register("emaScore", buildEMA)
	r.Register("fastStochasticScore", buildFastStochastic)
	r.Register("slowStochasticScore", buildSlowStochastic)
	return r
}

// Register adds or replaces a builder under name.
func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Build resolves an entry's function name and binds its args.
func (r *Registry) Build(entry model.ScoreEntry) (ScoreFunc, error) {
	b, ok := r.builders[entry.Function]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScore, entry.Function)
	}
	return b(entry.Args)
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildCandleType(args []any) (ScoreFunc, error) {
	if err := newArgReader("candleTypeScore", args).Done(); err != nil {
		return nil, err
	}
	return CandleTypeScore, nil
}

func buildEMA(args []any) (ScoreFunc, error) {
	r := newArgReader("emaScore", args)
	periods, err := r.Ints("periods")
	if err != nil {
		return nil, err
	}
	smoothing, err := r.FloatOr("smoothing", 2)
	if err != nil {
		return nil, err
	}
	src, err := r.SourceOr(model.SourceClose)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return func(series model.Series, index int) (float64, error) {
		return EMAScore(series, index, periods, smoothing, src)
	}, nil
}

func buildFastStochastic(args []any) (ScoreFunc, error) {
	r := newArgReader("fastStochasticScore", args)
	kn, err := r.Int("num %K periods")
	if err != nil {
		return nil, err
	}
	dn, err := r.Int("num %D periods")
	if err != nil {
		return nil, err
	}
	overbought, err := r.Float("overbought level")
	if err != nil {
		return nil, err
	}
	oversold, err := r.Float("oversold level")
	if err != nil {
		return nil, err
	}
	src, err := r.SourceOr(model.SourceClose)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return func(series model.Series, index int) (float64, error) {
		return FastStochasticScore(series, index, kn, dn, overbought, oversold, src)
	}, nil
}

func buildSlowStochastic(args []any) (ScoreFunc, error) {
	r := newArgReader("slowStochasticScore", args)
	kn, err := r.Int("num %K periods")
	if err != nil {
		return nil, err
	}
	dn, err := r.Int("num %D periods")
	if err != nil {
		return nil, err
	}
	smoothing, err := r.Int("smoothing")
	if err != nil {
		return nil, err
	}
	overbought, err := r.Float("overbought level")
	if err != nil {
		return nil, err
	}
	oversold, err := r.Float("oversold level")
	if err != nil {
		return nil, err
	}
	src, err := r.SourceOr(model.SourceClose)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return func(series model.Series, index int) (float64, error) {
		return SlowStochasticScore(series, index, kn, dn, smoothing, overbought, oversold, src)
	}, nil
}
