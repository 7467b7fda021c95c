package system

import (
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Reboot restarts the whole board. It needs CAP_SYS_BOOT; without it the
// process exits instead.
type Reboot struct{}

func (Reboot) Reset(reason string) {
	logger.Errorf("Rebooting node [%v]", reason)
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		logger.Errorf("Reboot failed [%v]", err)
	}
	logger.StandardLogger().Exit(1)
}
