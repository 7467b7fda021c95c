package clock

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
)

const (
	regSeconds = 0x00
	regStatus  = 0x0F

	statusOSF = 0x80 // oscillator stopped since the flag was last cleared
	hour12    = 0x40
	century   = 0x80
)

// DS3231 reads time from a Maxim DS3231 on I²C. The chip keeps UTC.
type DS3231 struct {
	dev conn.Conn
}

// NewDS3231 takes the device connection, usually an *i2c.Dev.
func NewDS3231(dev conn.Conn) *DS3231 {
	return &DS3231{dev: dev}
}

func (d *DS3231) Name() string {
	return "ds3231"
}

func (d *DS3231) Begin() error {
	status := make([]byte, 1)
	if err := d.dev.Tx([]byte{regStatus}, status); err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if status[0]&statusOSF != 0 {
		return ErrLostPower
	}
	return nil
}

func (d *DS3231) Read() (time.Time, error) {
	raw := make([]byte, 7)
	if err := d.dev.Tx([]byte{regSeconds}, raw); err != nil {
		return time.Time{}, fmt.Errorf("read time: %w", err)
	}
	return decodeTime(raw)
}

func bcd(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

func decodeTime(raw []byte) (time.Time, error) {
	if len(raw) < 7 {
		return time.Time{}, fmt.Errorf("short read [%v]", len(raw))
	}
	sec := bcd(raw[0] & 0x7F)
	min := bcd(raw[1] & 0x7F)

	var hour int
	if raw[2]&hour12 != 0 {
		hour = bcd(raw[2]&0x1F) % 12
		if raw[2]&0x20 != 0 { // PM
			hour += 12
		}
	} else {
		hour = bcd(raw[2] & 0x3F)
	}

	day := bcd(raw[4] & 0x3F)
	month := bcd(raw[5] & 0x1F)
	year := 2000 + bcd(raw[6])
	if raw[5]&century != 0 {
		year += 100
	}

	if sec > 59 || min > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid time registers [% x]", raw)
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC), nil
}
