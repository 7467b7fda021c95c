package main

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/gr-butler/pulsenode/counter"
	"github.com/gr-butler/pulsenode/led"
	"github.com/gr-butler/pulsenode/power"
	"github.com/gr-butler/pulsenode/schedule"
	"github.com/gr-butler/pulsenode/system"

	logger "github.com/sirupsen/logrus"
)

type phase int32

const (
	Starting phase = iota
	Sleeping
	Evaluating
	Reporting
)

func (p phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Sleeping:
		return "sleeping"
	case Evaluating:
		return "evaluating"
	case Reporting:
		return "reporting"
	default:
		return "unknown"
	}
}

type pulsenode struct {
	state   *counter.State
	sleeper *power.Sleeper
	sched   *schedule.Scheduler
	disp    *dispatcher
	reset   system.Resetter
	status  *led.LED

	phase atomic.Int32
}

func (n *pulsenode) Phase() phase {
	return phase(n.phase.Load())
}

func (n *pulsenode) setPhase(p phase) {
	n.phase.Store(int32(p))
}

// Run checks the radio and then loops until ctx is cancelled. If the radio
// cannot be activated the node is reset and the loop never starts.
func (n *pulsenode) Run(ctx context.Context) error {
	if err := n.disp.healthCheck(); err != nil {
		logger.Errorf("Radio failed to start [%v]", err)
		n.reset.Reset(err.Error())
		return err
	}
	logger.Infof("Reporting every [%v]", n.sched.Interval())

	for {
		if err := n.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// cycle is one pass of Sleeping, Evaluating and, when due, Reporting.
func (n *pulsenode) cycle(ctx context.Context) error {
	n.setPhase(Sleeping)
	wake, err := n.sched.Sleep(ctx)
	if err != nil {
		return err
	}
	recordWake(wake)

	n.setPhase(Evaluating)
	if !n.state.Due() {
		return nil
	}

	n.setPhase(Reporting)
	payload, err := n.disp.Dispatch()
	if err != nil {
		logger.Errorf("Report failed, counts dropped [%v]", err)
		Prom_reportsFailed.Inc()
	} else {
		logger.Infof("Sent report %v", payload)
		Prom_reportsSent.Inc()
		n.status.Flash()
	}
	// a send can retrigger the alarm, so the flag is cleared whatever happened
	n.state.ClearDue()
	return nil
}

func recordWake(w power.Wake) {
	if w.Timeout {
		Prom_wakes.WithLabelValues("timer").Inc()
		return
	}
	if w.Event != nil {
		Prom_wakes.WithLabelValues(w.Event.Kind.String()).Inc()
		logger.Debugf("Woken by [%v] at [%v]", w.Event.Kind, w.Event.At)
	}
}
