package env

import "time"

const (
	GPIO17 = "GPIO17" // sensor 1 reed switch
	GPIO20 = "GPIO20" // status LED
	GPIO27 = "GPIO27" // sensor 2 reed switch

	Sensor1In = GPIO17
	Sensor2In = GPIO27
	StatusLed = GPIO20

	// Linux character device exposing the header pins.
	GPIOChip = "gpiochip0"

	// Every 10 minutes, aligned to the wall clock (xx:00, xx:10, ...).
	DefaultReportInterval = 600 * time.Second

	// The radio needs a moment after power up before it accepts a frame.
	RadioWarmup = 100 * time.Millisecond

	// Reed switches chatter. Ignore glitches shorter than Denoise and
	// repeated edges within Debounce.
	Denoise  = 10 * time.Millisecond
	Debounce = 200 * time.Millisecond

	// Wake events queued while the main cycle is busy.
	WakeQueueDepth = 32

	// Flashes on the status LED when the clock could not be started.
	ClockFaultFlashes = 3

	DS3231Addr uint16 = 0x68

	DefaultDevice     = "pulsenode"
	DefaultMQTTBroker = "tcp://127.0.0.1:1883"
	DefaultModemPort  = "/dev/ttyAMA0"
	DefaultModemBaud  = 9600
	DefaultWebhookURL = "http://127.0.0.1:8080/uplink"

	// environment variables
	EnvDevice     = "PULSENODE_DEVICE"
	EnvMQTTBroker = "PULSENODE_MQTT_BROKER"
	EnvModemPort  = "PULSENODE_MODEM_PORT"
	EnvWebhookURL = "PULSENODE_WEBHOOK_URL"
)

var Disabled = false
var Enabled = true
