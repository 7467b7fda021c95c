// Package led drives the status indicator. A node built without one passes a
// nil pin and every call becomes a no-op.
package led

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const defaultPulse = 100 * time.Millisecond

type LED struct {
	Name    string
	lock    sync.Mutex
	on      bool
	pulse   time.Duration
	gpioPin gpio.PinIO
}

func NewLED(name string, pin gpio.PinIO) *LED {
	l := &LED{
		Name:    name,
		pulse:   defaultPulse,
		gpioPin: pin,
	}
	if pin != nil {
		_ = pin.Out(gpio.Low)
	}
	return l
}

// ByName looks the pin up in the periph registry. A missing pin is logged
// and yields an LED that does nothing.
func ByName(name, gpioPin string) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", gpioPin, name)
	p := gpioreg.ByName(gpioPin)
	if p == nil {
		logger.Errorf("Failed to find %v pin", gpioPin)
		return NewLED(name, nil)
	}
	return NewLED(name, p)
}

func (l *LED) On() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(gpio.Low)
	}
}

// Flash inverts the LED for one pulse. A flash already in progress absorbs
// the request.
func (l *LED) Flash() {
	if l.gpioPin == nil {
		return
	}
	if !l.lock.TryLock() {
		return
	}
	defer l.lock.Unlock()
	if !l.on {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(l.pulse)
		_ = l.gpioPin.Out(gpio.Low)
	} else {
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(l.pulse)
		_ = l.gpioPin.Out(gpio.High)
	}
}

// Flicker blinks the LED a number of times and leaves it in its prior state.
func (l *LED) Flicker(pulses int) {
	if l.gpioPin == nil {
		return
	}
	if pulses < 1 || pulses > 100 {
		// reject daft or excessive requests
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	for i := 0; i < pulses; i++ {
		_ = l.gpioPin.Out(gpio.High)
		time.Sleep(l.pulse)
		_ = l.gpioPin.Out(gpio.Low)
		time.Sleep(l.pulse)
	}
	if l.on {
		_ = l.gpioPin.Out(gpio.High)
	}
}

func (l *LED) IsOn() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}
