package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gr-butler/pulsenode/clock"
	"github.com/gr-butler/pulsenode/counter"
	"github.com/gr-butler/pulsenode/env"
	"github.com/gr-butler/pulsenode/led"
	"github.com/gr-butler/pulsenode/power"
	"github.com/gr-butler/pulsenode/radio"
	"github.com/gr-butler/pulsenode/schedule"
	"github.com/gr-butler/pulsenode/sensors"
	"github.com/gr-butler/pulsenode/system"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	logger "github.com/sirupsen/logrus"
)

const version = "GRB-Pulsenode-1.0.0"

func main() {
	logger.Infof("Starting pulse node [%v]", version)

	args := env.Args{
		Test:     flag.Bool("test", false, "test mode, logs reports instead of transmitting"),
		Verbose:  flag.Bool("verbose", false, "debug logging"),
		Interval: flag.Duration("interval", env.DefaultReportInterval, "report interval, aligned to the wall clock"),
		Sensor2:  flag.Bool("sensor2", env.DefaultChannels[1].Enabled, "enable the second reed switch"),
		Pin1:     flag.String("pin1", "", "sensor 1 pin (default "+env.Sensor1In+")"),
		Pin2:     flag.String("pin2", "", "sensor 2 pin (default "+env.Sensor2In+")"),
		Edge1:    flag.String("edge1", "", "sensor 1 edge: rising, falling or both"),
		Edge2:    flag.String("edge2", "", "sensor 2 edge: rising, falling or both"),
		Radio:    flag.String("radio", "mqtt", "uplink: mqtt, modem or webhook"),
		GPIO:     flag.String("gpio", "periph", "gpio backend: periph or cdev"),
		Clock:    flag.String("clock", "host", "time source: host or ds3231"),
		Reset:    flag.String("reset", "exit", "reset action: exit or reboot"),
		Metrics:  flag.String("metrics", "", "prometheus listen address, e.g. :9100 (off when empty)"),
	}
	flag.Parse()

	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if *args.Test {
		logger.Info("TEST MODE")
	}
	if *args.Interval < time.Second {
		logger.Errorf("Report interval too short [%v]", *args.Interval)
		logger.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		logger.Errorf("Failed to initialise periph host [%v]", err)
		logger.Exit(1)
	}

	resetter, ok := system.ByName(*args.Reset)
	if !ok {
		logger.Errorf("Unknown reset action [%v]", *args.Reset)
		logger.Exit(1)
	}

	status := led.ByName("status", env.StatusLed)
	hostClock := clockwork.NewRealClock()

	src, closeClock, err := openClock(*args.Clock, hostClock)
	if err != nil {
		logger.Errorf("Failed to open clock [%v]", err)
		logger.Exit(1)
	}
	defer closeClock()
	rtc := clock.New(src, hostClock)
	startClock(rtc, status)

	tx, err := openRadio(args)
	if err != nil {
		logger.Errorf("Failed to set up radio [%v]", err)
		logger.Exit(1)
	}

	chans, err := env.Channels(args)
	if err != nil {
		logger.Errorf("Bad channel configuration [%v]", err)
		logger.Exit(1)
	}
	declared := make([]counter.Channel, 0, len(chans))
	for _, c := range chans {
		declared = append(declared, counter.Channel{ID: counter.ChannelID(c.ID), Name: c.Name, Enabled: c.Enabled})
	}

	state := counter.New(declared)
	sleeper := power.NewSleeper(hostClock, env.WakeQueueDepth)
	defer sleeper.Close()
	prometheus.MustRegister(wakeDrops(sleeper))

	n := &pulsenode{
		state:   state,
		sleeper: sleeper,
		sched:   schedule.New(rtc, sleeper, *args.Interval),
		disp:    newDispatcher(state, tx, hostClock, env.RadioWarmup),
		reset:   resetter,
		status:  status,
	}

	if err := n.armAlarm(rtc); err != nil {
		logger.Errorf("Failed to arm clock alarm [%v]", err)
		logger.Exit(1)
	}
	for i, c := range chans {
		if !c.Enabled {
			logger.Infof("Channel [%v] disabled", c.Name)
			continue
		}
		edge, err := power.ParseEdge(c.Edge)
		if err != nil {
			logger.Errorf("Channel [%v] [%v]", c.Name, err)
			logger.Exit(1)
		}
		pin, err := sensors.Open(*args.GPIO, env.GPIOChip, c.Pin, env.Denoise, env.Debounce)
		if err != nil {
			logger.Errorf("Failed to open pin [%v] for [%v] [%v]", c.Pin, c.Name, err)
			logger.Exit(1)
		}
		if err := n.armChannel(declared[i], pin, edge); err != nil {
			logger.Errorf("Failed to arm [%v] [%v]", c.Name, err)
			logger.Exit(1)
		}
	}

	if *args.Metrics != "" {
		go serveMetrics(*args.Metrics)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.Run(ctx); err != nil {
		logger.Errorf("Stopped [%v]", err)
		return
	}
	logger.Info("Exiting...")
}

// startClock starts the RTC. A clock that will not start is shown on the
// status LED and the node carries on with host time.
func startClock(rtc *clock.RTC, status *led.LED) {
	if err := rtc.Begin(); err != nil {
		logger.Errorf("Clock not running, continuing on host time [%v]", err)
		status.Flicker(env.ClockFaultFlashes)
	}
}

// openClock returns the configured time source and a function releasing
// whatever it holds open.
func openClock(name string, fallback clockwork.Clock) (clock.Source, func(), error) {
	switch name {
	case "host":
		return clock.NewHost(fallback), func() {}, nil
	case "ds3231":
		bus, err := i2creg.Open("")
		if err != nil {
			return nil, nil, fmt.Errorf("open i2c bus: %w", err)
		}
		dev := &i2c.Dev{Bus: bus, Addr: env.DS3231Addr}
		return clock.NewDS3231(dev), func() { _ = bus.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown clock %q", name)
	}
}

func openRadio(args env.Args) (radio.Transmitter, error) {
	if *args.Test {
		return &radio.Fake{Log: true}, nil
	}
	device := env.Lookup(env.EnvDevice, env.DefaultDevice)
	switch *args.Radio {
	case "mqtt":
		return radio.NewMQTT(env.Lookup(env.EnvMQTTBroker, env.DefaultMQTTBroker), device), nil
	case "modem":
		return radio.NewModem(env.Lookup(env.EnvModemPort, env.DefaultModemPort), env.DefaultModemBaud), nil
	case "webhook":
		return radio.NewWebhook(env.Lookup(env.EnvWebhookURL, env.DefaultWebhookURL), device)
	default:
		return nil, fmt.Errorf("unknown radio %q", *args.Radio)
	}
}

func serveMetrics(addr string) {
	logger.Infof("Starting metrics endpoint on [%v]", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("Metrics endpoint stopped [%v]", err)
	}
}
