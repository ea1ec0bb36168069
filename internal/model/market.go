package model

import "time"

// Bar represents a single candlestick period.
type Bar struct {
	Timestamp int64 // epoch millis, start of the period
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Time returns the period start as a time.Time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// Series is a chronologically ordered run of bars. Index i is the i-th bar.
type Series []Bar

// Len returns the number of bars.
func (s Series) Len() int { return len(s) }

// LastIndex returns the index of the most recent bar, or -1 for an empty series.
func (s Series) LastIndex() int { return len(s) - 1 }

// Window returns the bars in [end-n+1, end]. Callers validate the bounds first.
func (s Series) Window(end, n int) Series {
	return s[end-n+1 : end+1]
}

// Last returns the most recent bar. ok is false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}
