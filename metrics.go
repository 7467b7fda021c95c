package main

import (
	"github.com/gr-butler/pulsenode/power"
	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
)

var Prom_pulses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulsenode_pulses_total",
		Help: "Reed switch pulses counted per channel",
	},
	[]string{"channel"},
)

var Prom_reportValue = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pulsenode_report_value",
		Help: "Count sent in the last report per channel",
	},
	[]string{"channel"},
)

var Prom_counterWraps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulsenode_counter_wraps_total",
		Help: "Reports where a channel counted past 255",
	},
	[]string{"channel"},
)

var Prom_reportsSent = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pulsenode_reports_sent_total",
		Help: "Reports transmitted",
	},
)

var Prom_reportsFailed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pulsenode_reports_failed_total",
		Help: "Reports lost to a radio failure",
	},
)

var Prom_wakes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulsenode_wakes_total",
		Help: "Main cycle wake ups by cause",
	},
	[]string{"source"},
)

// wakeDrops reads the sleeper's dropped wake events at scrape time.
func wakeDrops(s *power.Sleeper) prometheus.Collector {
	return prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "pulsenode_wake_drops_total",
			Help: "Wake events dropped because the queue was full",
		},
		func() float64 { return float64(s.Drops()) },
	)
}

func init() {
	logger.Debug("Initialize prometheus...")
	prometheus.MustRegister(
		Prom_pulses,
		Prom_reportValue,
		Prom_counterWraps,
		Prom_reportsSent,
		Prom_reportsFailed,
		Prom_wakes)
}
