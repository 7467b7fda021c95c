package env

import "time"

type Args struct {
	Test     *bool
	Verbose  *bool
	Interval *time.Duration
	Sensor2  *bool
	Pin1     *string
	Pin2     *string
	Edge1    *string
	Edge2    *string
	Radio    *string
	GPIO     *string
	Clock    *string
	Reset    *string
	Metrics  *string
}
