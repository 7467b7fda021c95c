package radio

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Fake records sessions and messages for test assertions. With Log set it
// also logs each message, which makes it usable as a dry-run radio.
type Fake struct {
	mu sync.Mutex

	// Messages contains every payload that was sent.
	Messages [][]byte

	// ActivateError, if set, will be returned by Activate.
	ActivateError error

	// SendError, if set, will be returned by SendMessage.
	SendError error

	// OnSend, if set, runs after each send attempt. Tests use it to
	// simulate side effects of a transmission.
	OnSend func()

	Log bool

	active      bool
	activations int
	deactivated int
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Activate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActivateError != nil {
		return f.ActivateError
	}
	f.active = true
	f.activations++
	return nil
}

func (f *Fake) SendMessage(payload []byte) error {
	f.mu.Lock()
	var err error
	switch {
	case !f.active:
		err = ErrNotActive
	case f.SendError != nil:
		err = f.SendError
	default:
		msg := make([]byte, len(payload))
		copy(msg, payload)
		f.Messages = append(f.Messages, msg)
		if f.Log {
			logger.Infof("Radio (dry run) message [% x]", msg)
		}
	}
	hook := f.OnSend
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return err
}

func (f *Fake) Deactivate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
	f.deactivated++
	return nil
}

// Sent returns a copy of the recorded messages.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.Messages))
	copy(out, f.Messages)
	return out
}

func (f *Fake) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Sessions returns the number of activations and deactivations.
func (f *Fake) Sessions() (activations, deactivations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations, f.deactivated
}
