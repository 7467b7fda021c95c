package sensors

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gr-butler/pulsenode/power"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
)

// how long WaitForEdge blocks before checking for Disarm
const edgePoll = 250 * time.Millisecond

// Pin watches a reed switch on a periph GPIO pin. The watcher goroutine is
// the "interrupt": it calls the armed handler once per edge.
type Pin struct {
	name     string
	raw      gpio.PinIO
	denoise  time.Duration
	debounce time.Duration

	mu    sync.Mutex
	stop  chan struct{}
	done  chan struct{}
	armed atomic.Bool
}

// NewPin looks the pin up by name, e.g. "GPIO17". host.Init must have run.
func NewPin(name string, denoise, debounce time.Duration) (*Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %v", name)
	}
	logger.Infof("%s: %s", p, p.Function())
	return NewPinIO(p, denoise, debounce), nil
}

// NewPinIO wraps an already resolved pin. Zero debounce disables the filter.
func NewPinIO(p gpio.PinIO, denoise, debounce time.Duration) *Pin {
	return &Pin{name: p.Name(), raw: p, denoise: denoise, debounce: debounce}
}

func (p *Pin) Name() string {
	return p.name
}

func gpioEdge(e power.Edge) gpio.Edge {
	switch e {
	case power.EdgeRising:
		return gpio.RisingEdge
	case power.EdgeFalling:
		return gpio.FallingEdge
	case power.EdgeBoth:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

// Arm configures the pin as a pulled-up input and starts the watcher.
func (p *Pin) Arm(edge power.Edge, fn func()) error {
	ge := gpioEdge(edge)
	if ge == gpio.NoEdge {
		return fmt.Errorf("pin %v: no edge to watch", p.name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	// The reed switch pulls the line to ground, we supply the pull up.
	if err := p.raw.In(gpio.PullUp, ge); err != nil {
		return fmt.Errorf("pin %v: %w", p.name, err)
	}
	pin := p.raw
	if p.debounce > 0 {
		db, err := gpioutil.Debounce(p.raw, p.denoise, p.debounce, ge)
		if err != nil {
			return fmt.Errorf("pin %v: set debounce: %w", p.name, err)
		}
		pin = db
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.armed.Store(true)
	go p.watch(pin, fn, p.stop, p.done)
	return nil
}

func (p *Pin) watch(pin gpio.PinIO, fn func(), stop, done chan struct{}) {
	defer close(done)
	defer p.armed.Store(false)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if pin.WaitForEdge(edgePoll) {
			fn()
		}
	}
}

func (p *Pin) Armed() bool {
	return p.armed.Load()
}

func (p *Pin) Disarm() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return p.raw.Halt()
}

func (p *Pin) stopLocked() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
}
