package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// periodSchedule fires first on the next period boundary, then on every
// check boundary after it. Boundaries are aligned to the Unix epoch.
type periodSchedule struct {
	period  time.Duration
	step    time.Duration
	started bool
}

var _ cron.Schedule = (*periodSchedule)(nil)

func newPeriodSchedule(period time.Duration, checksPerPeriod int) *periodSchedule {
	return &periodSchedule{period: period, step: period / time.Duration(checksPerPeriod)}
}

// Next implements cron.Schedule. Cron calls it from a single goroutine.
func (p *periodSchedule) Next(t time.Time) time.Time {
	if !p.started {
		p.started = true
		return nextBoundary(t, p.period)
	}
	return nextBoundary(t, p.step)
}

// nextBoundary returns the first multiple of d strictly after t.
func nextBoundary(t time.Time, d time.Duration) time.Time {
	ms := t.UnixMilli()
	step := d.Milliseconds()
	return time.UnixMilli(ms - ms%step + step).In(t.Location())
}

// onPeriodBoundary reports whether t, rounded to the nearest check, starts a
// new period. Cron fires slightly after the scheduled instant, hence the rounding.
func onPeriodBoundary(t time.Time, period, step time.Duration) bool {
	ms := t.UnixMilli()
	s := step.Milliseconds()
	rounded := (ms + s/2) / s * s
	return rounded%period.Milliseconds() == 0
}
