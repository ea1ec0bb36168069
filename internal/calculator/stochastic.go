package calculator

import (
	"math"

	"CryptoScorer/internal/model"
)

// FastStochasticK returns %K at index: where src sits inside the high/low
// range of the last numPeriods bars, scaled to 0..100. A flat range yields 100.
func FastStochasticK(series model.Series, index, numPeriods int, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num periods", numPeriods),
		CheckHistory(index, numPeriods),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return fastK(series, index, numPeriods, src), nil
}

// SlowStochasticK averages fast %K over the last `smoothing` indices ending at index.
func SlowStochasticK(series model.Series, index, numPeriods, smoothing int, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num periods", numPeriods),
		CheckPeriods("smoothing", smoothing),
		CheckHistory(index, numPeriods+smoothing),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return slowK(series, index, numPeriods, smoothing, src), nil
}

// FastStochasticD averages fast %K over the last numDPeriods indices ending at index.
func FastStochasticD(series model.Series, index, numKPeriods, numDPeriods int, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num %K periods", numKPeriods),
		CheckPeriods("num %D periods", numDPeriods),
		CheckHistory(index, numKPeriods+numDPeriods),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return fastD(series, index, numKPeriods, numDPeriods, src), nil
}

// SlowStochasticD averages slow %K over the last numDPeriods indices ending at index.
func SlowStochasticD(series model.Series, index, numKPeriods, numDPeriods, kSmoothing int, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num %K periods", numKPeriods),
		CheckPeriods("num %D periods", numDPeriods),
		CheckPeriods("%K smoothing", kSmoothing),
		CheckHistory(index, numKPeriods+numDPeriods+kSmoothing),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return slowD(series, index, numKPeriods, numDPeriods, kSmoothing, src), nil
}

func fastK(series model.Series, index, numPeriods int, src model.Source) float64 {
	high, low := math.Inf(-1), math.Inf(1)
	for _, b := range series.Window(index, numPeriods) {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	if high == low {
		return 100
	}
	return (src.Of(series[index]) - low) / (high - low) * 100
}

func slowK(series model.Series, index, numPeriods, smoothing int, src model.Source) float64 {
	sum := 0.0
	for i := index; i > index-smoothing; i-- {
		sum += fastK(series, i, numPeriods, src)
	}
	return sum / float64(smoothing)
}

func fastD(series model.Series, index, numKPeriods, numDPeriods int, src model.Source) float64 {
	sum := 0.0
	for i := index; i > index-numDPeriods; i-- {
		sum += fastK(series, i, numKPeriods, src)
	}
	return sum / float64(numDPeriods)
}

func slowD(series model.Series, index, numKPeriods, numDPeriods, kSmoothing int, src model.Source) float64 {
	sum := 0.0
	for i := index; i > index-numDPeriods; i-- {
		sum += slowK(series, i, numKPeriods, kSmoothing, src)
	}
	return sum / float64(numDPeriods)
}
