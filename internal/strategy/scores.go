package strategy

import (
	"fmt"

	"CryptoScorer/internal/calculator"
	"CryptoScorer/internal/model"
)

// transition holds an indicator's value at index-1 and at index.
type transition struct {
	prev, cur float64
}

// crossedAbove reports a moving from at-or-below b to strictly above it.
func crossedAbove(a, b transition) bool { return a.prev <= b.prev && a.cur > b.cur }

// crossedBelow reports a moving from strictly above b to at-or-below it.
func crossedBelow(a, b transition) bool { return a.prev > b.prev && a.cur <= b.cur }

// level is a constant threshold seen as a transition.
func level(v float64) transition { return transition{v, v} }

// CandleTypeScore returns 1 for a bullish candle, -1 for a bearish one, 0 otherwise.
func CandleTypeScore(series model.Series, index int) (float64, error) {
	if err := calculator.CheckIndex(series, index, 1); err != nil {
		return 0, err
	}
	b := series[index]
	switch {
	case b.Close > b.Open:
		return 1, nil
	case b.Close < b.Open:
		return -1, nil
	default:
		return 0, nil
	}
}

// EMAScore detects crossovers between the EMA of periods[0] and the EMA of
// each other period. Every bullish crossover adds 1/(len-1), every bearish one
// subtracts it.
func EMAScore(series model.Series, index int, periods []int, smoothing float64, src model.Source) (float64, error) {
	if err := calculator.CheckIndex(series, index, 1); err != nil {
		return 0, err
	}
	if len(periods) == 0 {
		return 0, fmt.Errorf("%w: at least one EMA period is required", calculator.ErrParameter)
	}
	for _, n := range periods {
		if err := calculator.CheckPeriods("num periods", n); err != nil {
			return 0, err
		}
	}
	for _, n := range periods {
		if err := calculator.CheckHistory(index-1, 2*n); err != nil {
			return 0, err
		}
	}
	if err := calculator.CheckSmoothing("smoothing", smoothing); err != nil {
		return 0, err
	}
	if err := calculator.CheckSource(src); err != nil {
		return 0, err
	}

	emas := make([]transition, len(periods))
	for i, n := range periods {
		prev, err := calculator.EMA(series, index-1, n, smoothing, src)
		if err != nil {
			return 0, err
		}
		cur, err := calculator.EMA(series, index, n, smoothing, src)
		if err != nil {
			return 0, err
		}
		emas[i] = transition{prev, cur}
	}

	score := 0.0
	ref := emas[0]
	for _, other := range emas[1:] {
		switch {
		case crossedAbove(ref, other):
			score += 1 / float64(len(emas)-1)
		case crossedBelow(ref, other):
			score -= 1 / float64(len(emas)-1)
		}
	}
	return score, nil
}

// FastStochasticScore scores %K/%D crossovers and overbought/oversold entries
// of the fast stochastic oscillator.
func FastStochasticScore(series model.Series, index, numKPeriods, numDPeriods int, overbought, oversold float64, src model.Source) (float64, error) {
	if err := validateStochastic(series, index, numKPeriods, numDPeriods, 0, src); err != nil {
		return 0, err
	}
	k, d, err := fastStochasticTransitions(series, index, numKPeriods, numDPeriods, src)
	if err != nil {
		return 0, err
	}
	return stochasticScore(k, d, overbought, oversold), nil
}

// SlowStochasticScore is FastStochasticScore over the smoothed %K and %D.
func SlowStochasticScore(series model.Series, index, numKPeriods, numDPeriods, smoothing int, overbought, oversold float64, src model.Source) (float64, error) {
	if err := calculator.CheckPeriods("smoothing", smoothing); err != nil {
		return 0, err
	}
	if err := validateStochastic(series, index, numKPeriods, numDPeriods, smoothing, src); err != nil {
		return 0, err
	}
	k, d, err := slowStochasticTransitions(series, index, numKPeriods, numDPeriods, smoothing, src)
	if err != nil {
		return 0, err
	}
	return stochasticScore(k, d, overbought, oversold), nil
}

// validateStochastic checks the nested %D window at index-1, which is the
// deepest read either stochastic score makes.
func validateStochastic(series model.Series, index, numKPeriods, numDPeriods, smoothing int, src model.Source) error {
	if err := calculator.CheckIndex(series, index, 1); err != nil {
		return err
	}
	if err := calculator.CheckPeriods("num %K periods", numKPeriods); err != nil {
		return err
	}
	if err := calculator.CheckPeriods("num %D periods", numDPeriods); err != nil {
		return err
	}
	if err := calculator.CheckHistory(index-1, numKPeriods+numDPeriods+smoothing); err != nil {
		return err
	}
	return calculator.CheckSource(src)
}

func fastStochasticTransitions(series model.Series, index, kn, dn int, src model.Source) (k, d transition, err error) {
	if k.prev, err = calculator.FastStochasticK(series, index-1, kn, src); err != nil {
		return
	}
	if k.cur, err = calculator.FastStochasticK(series, index, kn, src); err != nil {
		return
	}
	if d.prev, err = calculator.FastStochasticD(series, index-1, kn, dn, src); err != nil {
		return
	}
	d.cur, err = calculator.FastStochasticD(series, index, kn, dn, src)
	return
}

func slowStochasticTransitions(series model.Series, index, kn, dn, smoothing int, src model.Source) (k, d transition, err error) {
	if k.prev, err = calculator.SlowStochasticK(series, index-1, kn, smoothing, src); err != nil {
		return
	}
	if k.cur, err = calculator.SlowStochasticK(series, index, kn, smoothing, src); err != nil {
		return
	}
	if d.prev, err = calculator.SlowStochasticD(series, index-1, kn, dn, smoothing, src); err != nil {
		return
	}
	d.cur, err = calculator.SlowStochasticD(series, index, kn, dn, smoothing, src)
	return
}

// stochasticScore combines the %K/%D crossover (±0.5) with threshold entries
// (+0.5 each), then damps scores that contradict an overbought or oversold %K.
func stochasticScore(k, d transition, overbought, oversold float64) float64 {
	score := 0.0

	switch {
	case crossedAbove(k, d):
		score += 0.5
	case crossedBelow(k, d):
		score -= 0.5
	}

	switch {
	case crossedAbove(k, level(overbought)):
		score += 0.5
	case crossedBelow(k, level(oversold)):
		score += 0.5
	}

	if k.cur > overbought {
		if score <= -0.25 {
			score += 0.25
		} else if score < 0 {
			score = 0
		}
	} else if k.cur <= oversold {
		if score >= 0.25 {
			score -= 0.25
		} else if score > 0 {
			score = 0
		}
	}
	return score
}
