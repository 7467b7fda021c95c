//go:build !linux

package system

import (
	logger "github.com/sirupsen/logrus"
)

// Reboot falls back to exiting on platforms without reboot(2).
type Reboot struct{}

func (Reboot) Reset(reason string) {
	logger.Errorf("Reboot not supported, exiting [%v]", reason)
	logger.StandardLogger().Exit(1)
}
