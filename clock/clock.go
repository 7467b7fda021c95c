// Package clock is the real-time clock collaborator: absolute time from a
// Source, and an alarm that fires a registered handler at an absolute instant.
//
// Alarm timers always run on the injected clockwork.Clock. When the Source
// cannot be started the RTC is degraded and falls back to that clock's time.
package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/pulsenode/power"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrNotSet    = errors.New("clock not set")
	ErrLostPower = errors.New("rtc oscillator stopped")
)

// Source supplies absolute time.
type Source interface {
	Name() string
	Begin() error
	Read() (time.Time, error)
}

type RTC struct {
	src   Source
	clock clockwork.Clock

	mu        sync.Mutex
	degraded  bool
	handler   func()
	pending   clockwork.Timer
	pendingAt time.Time
}

func New(src Source, clock clockwork.Clock) *RTC {
	return &RTC{src: src, clock: clock}
}

// Begin starts the time source. On failure the RTC keeps working on the
// fallback clock and Degraded reports true.
func (r *RTC) Begin() error {
	if err := r.src.Begin(); err != nil {
		r.mu.Lock()
		r.degraded = true
		r.mu.Unlock()
		return fmt.Errorf("start %v: %w", r.src.Name(), err)
	}
	logger.Infof("Clock [%v] started, time is [%v]", r.src.Name(), r.Now().Format(time.RFC3339))
	return nil
}

func (r *RTC) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *RTC) Now() time.Time {
	if r.Degraded() {
		return r.clock.Now()
	}
	t, err := r.src.Read()
	if err != nil {
		logger.Warnf("Clock [%v] read failed, using host time [%v]", r.src.Name(), err)
		return r.clock.Now()
	}
	return t
}

// ScheduleAlarm arms the alarm for at, replacing any other pending alarm.
// Scheduling the instant already pending is a no-op. A pending alarm whose
// instant has passed is delivered rather than dropped.
func (r *RTC) ScheduleAlarm(at time.Time) {
	now := r.Now()

	r.mu.Lock()
	var overdue func()
	if r.pending != nil {
		if r.pendingAt.Equal(at) {
			r.mu.Unlock()
			return
		}
		if r.pending.Stop() && !r.pendingAt.After(now) {
			overdue = r.handler
		}
		r.pending = nil
	}
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	r.pendingAt = at
	r.pending = r.clock.AfterFunc(d, func() { r.fire(at) })
	r.mu.Unlock()

	if overdue != nil {
		logger.Debug("Delivering overdue alarm")
		overdue()
	}
}

func (r *RTC) fire(at time.Time) {
	r.mu.Lock()
	if r.pendingAt.Equal(at) {
		r.pending = nil
	}
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		h()
	}
}

// Pending returns the instant of the armed alarm, if any.
func (r *RTC) Pending() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingAt, r.pending != nil
}

// The alarm is a wake source. The edge is ignored.
var _ power.WakeSource = (*RTC)(nil)

func (r *RTC) Name() string {
	return "rtc-alarm"
}

func (r *RTC) Arm(edge power.Edge, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = fn
	return nil
}

func (r *RTC) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handler != nil
}

func (r *RTC) Disarm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.handler = nil
	return nil
}
