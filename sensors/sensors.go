// Package sensors provides the reed switch inputs as power.WakeSource
// implementations: periph GPIO pins, Linux gpiocdev lines, and a fake for
// tests.
package sensors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gr-butler/pulsenode/power"
)

var (
	_ power.WakeSource = (*Pin)(nil)
	_ power.WakeSource = (*Line)(nil)
	_ power.WakeSource = (*FakePin)(nil)
)

// Open returns the wake source for a pin name such as "GPIO17" using the
// named backend, "periph" or "cdev".
func Open(backend, chip, name string, denoise, debounce time.Duration) (power.WakeSource, error) {
	switch backend {
	case "", "periph":
		return NewPin(name, denoise, debounce)
	case "cdev":
		offset, err := Offset(name)
		if err != nil {
			return nil, err
		}
		return NewLine(chip, offset, debounce), nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}

// Offset converts a BCM pin name ("GPIO17", "17") to its line offset.
func Offset(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(name), "GPIO"))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad pin name %q", name)
	}
	return n, nil
}
