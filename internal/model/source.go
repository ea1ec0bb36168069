package model

import "fmt"

// Source names the OHLC field an indicator reads.
type Source string

const (
	SourceOpen  Source = "open"
	SourceHigh  Source = "high"
	SourceLow   Source = "low"
	SourceClose Source = "close"
)

// ParseSource maps a field name to a Source.
func ParseSource(name string) (Source, error) {
	s := Source(name)
	if !s.Valid() {
		return "", fmt.Errorf("source %q is not one of open, high, low, close", name)
	}
	return s, nil
}

// Valid reports whether s is one of the four OHLC fields.
func (s Source) Valid() bool {
	switch s {
	case SourceOpen, SourceHigh, SourceLow, SourceClose:
		return true
	}
	return false
}

// Of reads the field from a bar. The source must be valid.
func (s Source) Of(b Bar) float64 {
	switch s {
	case SourceOpen:
		return b.Open
	case SourceHigh:
		return b.High
	case SourceLow:
		return b.Low
	default:
		return b.Close
	}
}
