package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gr-butler/pulsenode/counter"
	"github.com/gr-butler/pulsenode/radio"
	"github.com/gr-butler/pulsenode/report"
	"github.com/jonboulle/clockwork"

	logger "github.com/sirupsen/logrus"
)

// dispatcher turns the counts into one uplink message. Only one dispatch
// runs at a time.
type dispatcher struct {
	mu     sync.Mutex
	state  *counter.State
	tx     radio.Transmitter
	clock  clockwork.Clock
	warmup time.Duration
}

func newDispatcher(state *counter.State, tx radio.Transmitter, clock clockwork.Clock, warmup time.Duration) *dispatcher {
	return &dispatcher{
		state:  state,
		tx:     tx,
		clock:  clock,
		warmup: warmup,
	}
}

// Dispatch drains the counters and sends them. The drained counts are gone
// whatever the outcome; a failed report is not retried.
func (d *dispatcher) Dispatch() (report.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	snapshot := d.state.Drain()
	for _, r := range snapshot {
		if r.Wrapped {
			logger.Warnf("Channel [%v] counted past 255 this interval, reporting [%v]", r.Name, r.Value)
			Prom_counterWraps.WithLabelValues(r.Name).Inc()
		}
	}

	if err := d.tx.Activate(); err != nil {
		return nil, fmt.Errorf("activate radio: %w", err)
	}
	defer func() {
		if err := d.tx.Deactivate(); err != nil {
			logger.Errorf("Failed to deactivate radio [%v]", err)
		}
	}()

	if d.warmup > 0 {
		<-d.clock.After(d.warmup)
	}

	payload := report.Compose(snapshot)
	if err := d.tx.SendMessage(payload); err != nil {
		return payload, fmt.Errorf("send report %v: %w", payload, err)
	}
	for _, r := range snapshot {
		Prom_reportValue.WithLabelValues(r.Name).Set(float64(r.Value))
	}
	return payload, nil
}

// healthCheck proves the radio can be brought up before the node commits
// to its cycle.
func (d *dispatcher) healthCheck() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.tx.Activate(); err != nil {
		return fmt.Errorf("activate radio: %w", err)
	}
	if err := d.tx.Deactivate(); err != nil {
		logger.Warnf("Failed to deactivate radio after health check [%v]", err)
	}
	return nil
}
