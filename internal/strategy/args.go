package strategy

import (
	"errors"
	"fmt"
	"math"

	"CryptoScorer/internal/calculator"
	"CryptoScorer/internal/model"
)

// ErrBadArgs reports score entry args that do not fit the function's parameters.
var ErrBadArgs = errors.New("bad score arguments")

// argReader walks a score entry's args in order. Values arrive as decoded
// YAML (int, float64, string, []any) or as plain Go values.
type argReader struct {
	fn   string
	args []any
	pos  int
}

func newArgReader(fn string, args []any) *argReader {
	return &argReader{fn: fn, args: args}
}

func (r *argReader) more() bool { return r.pos < len(r.args) }

func (r *argReader) next(label string) (any, error) {
	if !r.more() {
		return nil, fmt.Errorf("%w: %s: missing %s (arg %d)", ErrBadArgs, r.fn, label, r.pos+1)
	}
	v := r.args[r.pos]
	r.pos++
	return v, nil
}

func (r *argReader) fail(label string, v any) error {
	return fmt.Errorf("%w: %s: %s (arg %d) has unusable value %v (%T)", ErrBadArgs, r.fn, label, r.pos, v, v)
}

func (r *argReader) Int(label string) (int, error) {
	v, err := r.next(label)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(v)
	if !ok {
		return 0, r.fail(label, v)
	}
	return n, nil
}

func (r *argReader) Ints(label string) ([]int, error) {
	v, err := r.next(label)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case []int:
		return append([]int(nil), list...), nil
	case []any:
		out := make([]int, len(list))
		for i, item := range list {
			n, ok := asInt(item)
			if !ok {
				return nil, r.fail(label, v)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, r.fail(label, v)
}

func (r *argReader) Float(label string) (float64, error) {
	v, err := r.next(label)
	if err != nil {
		return 0, err
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, r.fail(label, v)
	}
	return f, nil
}

func (r *argReader) FloatOr(label string, def float64) (float64, error) {
	if !r.more() {
		return def, nil
	}
	return r.Float(label)
}

// SourceOr reads an optional source name, checked eagerly.
func (r *argReader) SourceOr(def model.Source) (model.Source, error) {
	if !r.more() {
		return def, nil
	}
	v, _ := r.next("source")
	name, ok := v.(string)
	if !ok {
		return "", r.fail("source", v)
	}
	src := model.Source(name)
	if err := calculator.CheckSource(src); err != nil {
		return "", fmt.Errorf("%s: %w", r.fn, err)
	}
	return src, nil
}

// Done fails if args are left over.
func (r *argReader) Done() error {
	if r.more() {
		return fmt.Errorf("%w: %s: takes %d args, got %d", ErrBadArgs, r.fn, r.pos, len(r.args))
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int(n), true
		}
	case uint64:
		if n <= math.MaxInt32 {
			return int(n), true
		}
	case float64:
		// Bounded so int(n) is well defined; rejects NaN and Inf too.
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
