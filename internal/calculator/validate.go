package calculator

import (
	"errors"
	"fmt"

	"CryptoScorer/internal/model"
)

var (
	// ErrRange reports a target index outside the series or a lookback window
	// that would start before index 0.
	ErrRange = errors.New("range violation")
	// ErrParameter reports a non-positive period count or smoothing factor.
	ErrParameter = errors.New("parameter violation")
	// ErrInvalidSource reports a field name other than open, high, low, close.
	ErrInvalidSource = errors.New("invalid source field")
)

// CheckIndex fails unless minIndex <= index < series.Len().
func CheckIndex(series model.Series, index, minIndex int) error {
	if index < minIndex || index >= series.Len() {
		return fmt.Errorf("%w: target index %d out of range [%d, %d)", ErrRange, index, minIndex, series.Len())
	}
	return nil
}

// CheckPeriods fails unless n is positive.
func CheckPeriods(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrParameter, name, n)
	}
	return nil
}

// CheckSmoothing fails unless v is positive.
func CheckSmoothing(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrParameter, name, v)
	}
	return nil
}

// CheckHistory fails unless `periods` bars ending at index fit in the series.
func CheckHistory(index, periods int) error {
	if index-periods+1 < 0 {
		return fmt.Errorf("%w: not enough data for %d periods ending at index %d", ErrRange, periods, index)
	}
	return nil
}

// CheckSource fails unless src names an OHLC field.
func CheckSource(src model.Source) error {
	if !src.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, string(src))
	}
	return nil
}

// firstErr returns the first non-nil error so each indicator can list its
// preconditions in order.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
