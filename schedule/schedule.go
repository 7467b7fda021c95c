// Package schedule computes the next report boundary and sleeps until it.
//
// Boundaries are whole multiples of the interval counted from the Unix epoch,
// so a 10 minute interval wakes at xx:00, xx:10, ... whatever the node's
// uptime. Elapsed sleep time is never accumulated.
package schedule

import (
	"context"
	"time"

	"github.com/gr-butler/pulsenode/power"
	logger "github.com/sirupsen/logrus"
)

// Clock is the part of the clock collaborator the scheduler needs.
type Clock interface {
	Now() time.Time
	ScheduleAlarm(at time.Time)
}

type Sleeper interface {
	SleepFor(ctx context.Context, d time.Duration) (power.Wake, error)
}

type Scheduler struct {
	clock    Clock
	sleeper  Sleeper
	interval time.Duration
}

func New(clock Clock, sleeper Sleeper, interval time.Duration) *Scheduler {
	return &Scheduler{clock: clock, sleeper: sleeper, interval: interval}
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// NextBoundary returns the smallest multiple of interval after the epoch
// that is strictly later than now. A now exactly on a boundary yields
// now + interval.
func NextBoundary(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return now
	}
	n := now.UnixNano()
	i := int64(interval)
	q := n / i
	if n%i < 0 {
		q-- // floor for instants before the epoch
	}
	return time.Unix(0, (q+1)*i).In(now.Location())
}

// Next returns the next boundary after now and how long until it.
func (s *Scheduler) Next(now time.Time) (time.Time, time.Duration) {
	at := NextBoundary(now, s.interval)
	return at, at.Sub(now)
}

// Sleep arms the alarm for the next boundary and sleeps until it, or until
// an earlier wake event.
func (s *Scheduler) Sleep(ctx context.Context) (power.Wake, error) {
	at, d := s.Next(s.clock.Now())
	s.clock.ScheduleAlarm(at)
	logger.Debugf("Sleeping [%v] until [%v]", d, at.Format(time.RFC3339))
	return s.sleeper.SleepFor(ctx, d)
}
