package env

import (
	"fmt"
	"os"
)

// Channel is the wiring of one reed switch input.
type Channel struct {
	ID      uint8
	Name    string
	Pin     string
	Enabled bool
	Edge    string
}

// DefaultChannels is the declared channel order; the payload follows it.
var DefaultChannels = []Channel{
	{ID: 1, Name: "sensor1", Pin: Sensor1In, Enabled: Enabled, Edge: "rising"},
	{ID: 2, Name: "sensor2", Pin: Sensor2In, Enabled: Disabled, Edge: "rising"},
}

// Channels applies the command line overrides to DefaultChannels.
func Channels(args Args) ([]Channel, error) {
	chans := make([]Channel, len(DefaultChannels))
	copy(chans, DefaultChannels)

	if args.Pin1 != nil && *args.Pin1 != "" {
		chans[0].Pin = *args.Pin1
	}
	if args.Edge1 != nil && *args.Edge1 != "" {
		chans[0].Edge = *args.Edge1
	}
	if args.Sensor2 != nil {
		chans[1].Enabled = *args.Sensor2
	}
	if args.Pin2 != nil && *args.Pin2 != "" {
		chans[1].Pin = *args.Pin2
	}
	if args.Edge2 != nil && *args.Edge2 != "" {
		chans[1].Edge = *args.Edge2
	}

	enabled := 0
	for _, c := range chans {
		if c.Enabled {
			enabled++
		}
		if c.Enabled && c.Pin == "" {
			return nil, fmt.Errorf("channel %v [%v] has no pin", c.ID, c.Name)
		}
	}
	if enabled == 0 {
		return nil, fmt.Errorf("no sensor channel enabled")
	}
	return chans, nil
}

// Lookup returns the environment value for key, or def when unset.
func Lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
