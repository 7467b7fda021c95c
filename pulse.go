package main

import (
	"fmt"

	"github.com/gr-butler/pulsenode/counter"
	"github.com/gr-butler/pulsenode/power"
)

// armAlarm makes the clock alarm raise the send-due flag.
func (n *pulsenode) armAlarm(src power.WakeSource) error {
	ev := power.Event{Kind: power.AlarmFired}
	return n.sleeper.RegisterWakeSource(src, power.EdgeNone, ev, n.state.SetDue)
}

// armChannel counts every edge on src against c. Disabled channels get no
// wake source. The handler runs outside the main cycle and only counts.
func (n *pulsenode) armChannel(c counter.Channel, src power.WakeSource, edge power.Edge) error {
	if !c.Enabled {
		return nil
	}
	if edge == power.EdgeNone {
		return fmt.Errorf("channel %v [%v]: no edge selected", c.ID, c.Name)
	}
	id := c.ID
	pulses := Prom_pulses.WithLabelValues(c.Name)
	handler := func() {
		n.state.Increment(id)
		pulses.Inc()
	}
	ev := power.Event{Kind: power.PulseOnChannel, Channel: uint8(id)}
	return n.sleeper.RegisterWakeSource(src, edge, ev, handler)
}
