package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gr-butler/pulsenode/clock"
	"github.com/gr-butler/pulsenode/counter"
	"github.com/gr-butler/pulsenode/led"
	"github.com/gr-butler/pulsenode/power"
	"github.com/gr-butler/pulsenode/radio"
	"github.com/gr-butler/pulsenode/schedule"
	"github.com/gr-butler/pulsenode/sensors"
	"github.com/gr-butler/pulsenode/system"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interval = 600 * time.Second

// base is on a report boundary.
var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type harness struct {
	fc       clockwork.FakeClock
	rtc      *clock.RTC
	state    *counter.State
	tx       *radio.Fake
	resetter *system.FakeResetter
	pins     []*sensors.FakePin
	node     *pulsenode
}

// newHarness wires a node on a fake clock. With a nil alarm the RTC alarm
// raises the due flag; otherwise alarm does.
func newHarness(t *testing.T, chans []counter.Channel, alarm power.WakeSource) *harness {
	fc := clockwork.NewFakeClockAt(base)
	rtc := clock.New(clock.NewHost(fc), fc)
	require.NoError(t, rtc.Begin())

	state := counter.New(chans)
	sleeper := power.NewSleeper(fc, 32)
	t.Cleanup(func() { _ = sleeper.Close() })

	h := &harness{
		fc:       fc,
		rtc:      rtc,
		state:    state,
		tx:       radio.NewFake(),
		resetter: &system.FakeResetter{},
	}
	h.node = &pulsenode{
		state:   state,
		sleeper: sleeper,
		sched:   schedule.New(rtc, sleeper, interval),
		disp:    newDispatcher(state, h.tx, fc, 0),
		reset:   h.resetter,
		status:  led.NewLED("status", nil),
	}

	if alarm == nil {
		alarm = rtc
	}
	require.NoError(t, h.node.armAlarm(alarm))
	for _, c := range chans {
		p := sensors.NewFakePin(c.Name)
		h.pins = append(h.pins, p)
		require.NoError(t, h.node.armChannel(c, p, power.EdgeRising))
	}
	return h
}

func (h *harness) start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.node.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("node did not stop")
		}
	})
}

// waitAsleep returns once the node has armed the alarm for at.
func (h *harness) waitAsleep(t *testing.T, at time.Time) {
	require.Eventually(t, func() bool {
		p, ok := h.rtc.Pending()
		return ok && p.Equal(at) && h.node.Phase() == Sleeping
	}, time.Second, time.Millisecond)
}

func (h *harness) pulse(t *testing.T, ch int) {
	require.NoError(t, h.pins[ch].Trigger())
}

func (h *harness) waitReports(t *testing.T, n int) [][]byte {
	require.Eventually(t, func() bool {
		return len(h.tx.Sent()) >= n
	}, time.Second, time.Millisecond)
	return h.tx.Sent()
}

func TestNodeEndToEnd(t *testing.T) {
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, nil)
	h.start(t)
	h.waitAsleep(t, base.Add(interval))

	h.fc.Advance(5 * time.Second)
	h.pulse(t, 0)
	h.fc.Advance(125 * time.Second)
	h.pulse(t, 0)
	assert.Empty(t, h.tx.Sent())

	h.fc.Advance(470 * time.Second)
	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{2}, sent[0])

	h.waitAsleep(t, base.Add(2*interval))
	h.fc.Advance(time.Second)
	h.pulse(t, 0)
	h.fc.Advance(599 * time.Second)

	sent = h.waitReports(t, 2)
	assert.Equal(t, [][]byte{{2}, {1}}, sent)
	assert.False(t, h.state.Due())
}

func TestNodeTwoChannels(t *testing.T) {
	h := newHarness(t, twoChannels(), nil)
	h.start(t)
	h.waitAsleep(t, base.Add(interval))

	for i := 0; i < 3; i++ {
		h.fc.Advance(time.Minute)
		h.pulse(t, 0)
	}
	h.fc.Advance(interval - 3*time.Minute)

	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{3, 0}, sent[0])
}

func TestNodeQuietIntervalReportsZero(t *testing.T) {
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, nil)
	h.start(t)
	h.waitAsleep(t, base.Add(interval))

	h.fc.Advance(interval)
	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{0}, sent[0])
}

func TestNodeDisabledChannel(t *testing.T) {
	chans := []counter.Channel{
		{ID: 1, Name: "gauge-a", Enabled: true},
		{ID: 2, Name: "gauge-b", Enabled: false},
	}
	h := newHarness(t, chans, nil)
	assert.Equal(t, 1, h.pins[0].Arms())
	assert.Zero(t, h.pins[1].Arms())
	assert.Error(t, h.pins[1].Trigger())

	h.start(t)
	h.waitAsleep(t, base.Add(interval))
	h.pulse(t, 0)
	h.fc.Advance(interval)

	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{1}, sent[0])
}

func TestNodeResetsWhenRadioFailsAtStartup(t *testing.T) {
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, nil)
	h.tx.ActivateError = errors.New("no module")

	err := h.node.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, h.resetter.Reasons(), 1)
	assert.Equal(t, Starting, h.node.Phase())
	_, scheduled := h.rtc.Pending()
	assert.False(t, scheduled)
	assert.Empty(t, h.tx.Sent())
}

func TestNodeFlagClearedAfterSpuriousAlarms(t *testing.T) {
	alarm := sensors.NewFakePin("alarm")
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, alarm)
	h.tx.OnSend = func() {
		// the transmission retriggers the alarm line
		_ = alarm.Trigger()
		_ = alarm.Trigger()
	}
	h.start(t)
	h.waitAsleep(t, base.Add(interval))

	h.pulse(t, 0)
	require.NoError(t, alarm.Trigger())
	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{1}, sent[0])

	require.Eventually(t, func() bool {
		return !h.state.Due() && h.node.Phase() == Sleeping
	}, time.Second, time.Millisecond)
	assert.Never(t, func() bool {
		return len(h.tx.Sent()) > 1
	}, 100*time.Millisecond, 5*time.Millisecond)
	assert.False(t, h.state.Due())
}

func TestNodePulseDuringReportCountsNext(t *testing.T) {
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, nil)
	first := true
	h.tx.OnSend = func() {
		if first {
			first = false
			_ = h.pins[0].Trigger()
		}
	}
	h.start(t)
	h.waitAsleep(t, base.Add(interval))

	h.pulse(t, 0)
	h.pulse(t, 0)
	h.fc.Advance(interval)
	sent := h.waitReports(t, 1)
	assert.Equal(t, []byte{2}, sent[0])

	h.waitAsleep(t, base.Add(2*interval))
	h.fc.Advance(interval)
	sent = h.waitReports(t, 2)
	assert.Equal(t, []byte{1}, sent[1])
}

func TestNodeStopsOnCancel(t *testing.T) {
	h := newHarness(t, []counter.Channel{{ID: 1, Name: "gauge", Enabled: true}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.node.Run(ctx) }()
	h.waitAsleep(t, base.Add(interval))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("node did not stop")
	}
}

func TestArmChannelNeedsEdge(t *testing.T) {
	h := newHarness(t, nil, nil)
	err := h.node.armChannel(counter.Channel{ID: 3, Name: "x", Enabled: true}, sensors.NewFakePin("x"), power.EdgeNone)
	assert.Error(t, err)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "sleeping", Sleeping.String())
	assert.Equal(t, "reporting", Reporting.String())
	assert.Equal(t, "unknown", phase(42).String())
}
