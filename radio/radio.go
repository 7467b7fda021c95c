// Package radio is the transmission collaborator: a low-bandwidth uplink that
// is powered up for one message and then put back into standby.
package radio

import "errors"

var (
	ErrNotActive       = errors.New("radio not active")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Transmitter sends one fixed-size message per session.
type Transmitter interface {
	// Activate brings the radio up. A failure at startup is fatal.
	Activate() error

	// SendMessage transmits payload as a single message. There is no
	// delivery acknowledgement.
	SendMessage(payload []byte) error

	// Deactivate returns the radio to its lowest power standby.
	Deactivate() error
}
