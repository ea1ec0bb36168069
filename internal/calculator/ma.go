package calculator

import "CryptoScorer/internal/model"

// SMA computes the simple moving average of src over the numPeriods bars ending at index.
func SMA(series model.Series, index, numPeriods int, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num periods", numPeriods),
		CheckHistory(index, numPeriods),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return sma(series, index, numPeriods, src), nil
}

// EMA computes the exponential moving average of src at index. The value at
// index-numPeriods is seeded with the SMA of the window before it and rolled
// forward bar by bar, so 2*numPeriods bars of history are required.
func EMA(series model.Series, index, numPeriods int, smoothing float64, src model.Source) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num periods", numPeriods),
		CheckHistory(index, 2*numPeriods),
		CheckSmoothing("smoothing", smoothing),
		CheckSource(src),
	); err != nil {
		return 0, err
	}
	return ema(series, index, numPeriods, smoothing, src), nil
}

func sma(series model.Series, index, numPeriods int, src model.Source) float64 {
	sum := 0.0
	for _, b := range series.Window(index, numPeriods) {
		sum += src.Of(b)
	}
	return sum / float64(numPeriods)
}

func ema(series model.Series, index, numPeriods int, smoothing float64, src model.Source) float64 {
	multiplier := smoothing / float64(numPeriods+1)
	value := sma(series, index-numPeriods, numPeriods, src)
	for _, b := range series.Window(index, numPeriods) {
		value = (src.Of(b)-value)*multiplier + value
	}
	return value
}
