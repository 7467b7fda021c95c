//go:build linux

package sensors

import (
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/pulsenode/power"
	"github.com/warthog618/go-gpiocdev"
)

// Line watches a reed switch through the Linux GPIO character device. The
// kernel debounces and delivers edge events to a handler goroutine.
type Line struct {
	chip     string
	offset   int
	debounce time.Duration

	mu   sync.Mutex
	line *gpiocdev.Line
}

func NewLine(chip string, offset int, debounce time.Duration) *Line {
	return &Line{chip: chip, offset: offset, debounce: debounce}
}

func (l *Line) Name() string {
	return fmt.Sprintf("%s:%d", l.chip, l.offset)
}

func (l *Line) Arm(edge power.Edge, fn func()) error {
	var edgeOpt gpiocdev.LineReqOption
	switch edge {
	case power.EdgeRising:
		edgeOpt = gpiocdev.WithRisingEdge
	case power.EdgeFalling:
		edgeOpt = gpiocdev.WithFallingEdge
	case power.EdgeBoth:
		edgeOpt = gpiocdev.WithBothEdges
	default:
		return fmt.Errorf("line %v: no edge to watch", l.Name())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.line != nil {
		l.line.Close()
		l.line = nil
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		edgeOpt,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { fn() }),
	}
	if l.debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(l.debounce))
	}
	line, err := gpiocdev.RequestLine(l.chip, l.offset, opts...)
	if err != nil {
		return fmt.Errorf("request line %v: %w", l.Name(), err)
	}
	l.line = line
	return nil
}

func (l *Line) Armed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.line != nil
}

// Disarm releases the line, leaving it an input with pull up.
func (l *Line) Disarm() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.line == nil {
		return nil
	}
	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %v: %w", l.Name(), err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %v: %w", l.Name(), err))
	}
	l.line = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
