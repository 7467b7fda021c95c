//go:build !linux

package sensors

import (
	"errors"
	"time"

	"github.com/gr-butler/pulsenode/power"
)

// Line is not available on non-Linux platforms.
type Line struct{}

func NewLine(chip string, offset int, debounce time.Duration) *Line {
	return &Line{}
}

func (l *Line) Name() string {
	return "gpiocdev"
}

// Arm returns an error on non-Linux platforms.
func (l *Line) Arm(edge power.Edge, fn func()) error {
	return errors.New("gpiocdev: not supported on this platform (requires Linux)")
}

func (l *Line) Armed() bool {
	return false
}

func (l *Line) Disarm() error {
	return nil
}
