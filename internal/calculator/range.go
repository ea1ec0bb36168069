package calculator

import (
	"math"

	"CryptoScorer/internal/model"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) for the bar at index.
func TrueRange(series model.Series, index int) (float64, error) {
	if err := CheckIndex(series, index, 1); err != nil {
		return 0, err
	}
	return trueRange(series, index), nil
}

// ATR averages the true range over the numPeriods bars ending at index. Each
// true range reads the bar before it, hence numPeriods+1 bars of history.
func ATR(series model.Series, index, numPeriods int) (float64, error) {
	if err := firstErr(
		CheckIndex(series, index, 0),
		CheckPeriods("num periods", numPeriods),
		CheckHistory(index, numPeriods+1),
	); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := index - numPeriods + 1; i <= index; i++ {
		sum += trueRange(series, i)
	}
	return sum / float64(numPeriods), nil
}

func trueRange(series model.Series, index int) float64 {
	cur, prevClose := series[index], series[index-1].Close
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prevClose), math.Abs(cur.Low-prevClose)))
}
