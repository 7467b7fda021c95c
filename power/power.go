// Package power provides the sleep primitive and wake source registry.
//
// Handlers registered through RegisterWakeSource run in the source's own
// goroutine (the "interrupt"). After the handler returns, a wake event is
// posted to a bounded queue without blocking. SleepFor returns on the first
// queued event or when its timer expires.
package power

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

// Edge is the trigger condition of a wake source.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(s) {
	case "rising":
		return EdgeRising, nil
	case "falling":
		return EdgeFalling, nil
	case "both", "change":
		return EdgeBoth, nil
	default:
		return EdgeNone, fmt.Errorf("unknown edge %q", s)
	}
}

// Kind is the variant of a wake event.
type Kind int

const (
	PulseOnChannel Kind = iota + 1
	AlarmFired
)

func (k Kind) String() string {
	switch k {
	case PulseOnChannel:
		return "pulse"
	case AlarmFired:
		return "alarm"
	default:
		return "unknown"
	}
}

// Event is what woke the sleeper. Channel is only set for pulses.
type Event struct {
	Kind    Kind
	Channel uint8
	At      time.Time
}

// Wake is the result of SleepFor. Exactly one of Event or Timeout is set.
type Wake struct {
	Event   *Event
	Timeout bool
}

// WakeSource is anything that can call back from outside the main cycle.
type WakeSource interface {
	Name() string
	Arm(edge Edge, fn func()) error
	Armed() bool
	Disarm() error
}

type registration struct {
	src  WakeSource
	edge Edge
	fn   func()
}

type Sleeper struct {
	clock  clockwork.Clock
	events chan Event
	drops  atomic.Uint32

	mu      sync.Mutex
	sources []registration
}

func NewSleeper(clock clockwork.Clock, depth int) *Sleeper {
	if depth <= 0 {
		depth = 1
	}
	return &Sleeper{
		clock:  clock,
		events: make(chan Event, depth),
	}
}

// RegisterWakeSource arms src so that each trigger runs handler and then
// posts ev, stamped with the current time.
func (s *Sleeper) RegisterWakeSource(src WakeSource, edge Edge, ev Event, handler func()) error {
	fn := func() {
		if handler != nil {
			handler()
		}
		e := ev
		e.At = s.clock.Now()
		s.post(e)
	}
	if err := src.Arm(edge, fn); err != nil {
		return fmt.Errorf("arm %v: %w", src.Name(), err)
	}
	s.mu.Lock()
	s.sources = append(s.sources, registration{src: src, edge: edge, fn: fn})
	s.mu.Unlock()
	logger.Infof("Wake source [%v] armed on [%v] edge", src.Name(), edge)
	return nil
}

func (s *Sleeper) post(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.drops.Add(1)
	}
}

// Drops is the number of wake events lost to a full queue. The counts
// behind a dropped pulse wake are not lost.
func (s *Sleeper) Drops() uint32 {
	return s.drops.Load()
}

// rearm restores any source that is no longer armed, so that no source is
// missing while asleep.
func (s *Sleeper) rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.sources {
		if r.src.Armed() {
			continue
		}
		logger.Warnf("Wake source [%v] not armed, re-arming", r.src.Name())
		if err := r.src.Arm(r.edge, r.fn); err != nil {
			logger.Errorf("Failed to re-arm [%v] [%v]", r.src.Name(), err)
		}
	}
}

// SleepFor blocks for d, or until a wake event is queued, or ctx is done.
// An event queued while the caller was busy ends the sleep at once.
func (s *Sleeper) SleepFor(ctx context.Context, d time.Duration) (Wake, error) {
	s.rearm()

	select {
	case ev := <-s.events:
		return Wake{Event: &ev}, nil
	default:
	}
	if d <= 0 {
		return Wake{Timeout: true}, nil
	}

	t := s.clock.NewTimer(d)
	defer t.Stop()

	select {
	case ev := <-s.events:
		return Wake{Event: &ev}, nil
	case <-t.Chan():
		return Wake{Timeout: true}, nil
	case <-ctx.Done():
		return Wake{}, ctx.Err()
	}
}

// Close disarms every registered source.
func (s *Sleeper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, r := range s.sources {
		if err := r.src.Disarm(); err != nil {
			errs = append(errs, fmt.Errorf("disarm %v: %w", r.src.Name(), err))
		}
	}
	s.sources = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
