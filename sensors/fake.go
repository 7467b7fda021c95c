package sensors

import (
	"errors"
	"sync"

	"github.com/gr-butler/pulsenode/power"
)

// FakePin is a test double. Trigger simulates an edge.
type FakePin struct {
	PinName string

	// ArmError, if set, will be returned by Arm.
	ArmError error

	mu    sync.Mutex
	fn    func()
	edge  power.Edge
	arms  int
	armed bool
}

func NewFakePin(name string) *FakePin {
	return &FakePin{PinName: name}
}

func (f *FakePin) Name() string {
	return f.PinName
}

func (f *FakePin) Arm(edge power.Edge, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ArmError != nil {
		return f.ArmError
	}
	f.fn = fn
	f.edge = edge
	f.arms++
	f.armed = true
	return nil
}

func (f *FakePin) Armed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.armed
}

func (f *FakePin) Disarm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = false
	return nil
}

// Arms is the number of successful Arm calls.
func (f *FakePin) Arms() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.arms
}

// Edge is the edge the pin was last armed with.
func (f *FakePin) Edge() power.Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edge
}

// Trigger runs the armed handler in the caller's goroutine.
func (f *FakePin) Trigger() error {
	f.mu.Lock()
	fn, armed := f.fn, f.armed
	f.mu.Unlock()
	if !armed || fn == nil {
		return errors.New("pin not armed")
	}
	fn()
	return nil
}
