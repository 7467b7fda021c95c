// Package report builds the uplink message from a drained counter snapshot.
package report

import (
	"encoding/hex"

	"github.com/gr-butler/pulsenode/counter"
)

// Payload is one byte per enabled channel, in declared channel order.
type Payload []byte

// Compose copies the drained values into a payload. The snapshot must come
// from a single Drain so the bytes describe the same interval.
func Compose(snapshot []counter.Reading) Payload {
	p := make(Payload, len(snapshot))
	for i, r := range snapshot {
		p[i] = r.Value
	}
	return p
}

func (p Payload) Hex() string {
	return hex.EncodeToString(p)
}

func (p Payload) String() string {
	return "[" + p.Hex() + "]"
}
