// Package system restarts the node when it cannot continue.
package system

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Resetter puts the node back into its power-on state. Real implementations
// do not return.
type Resetter interface {
	Reset(reason string)
}

// Exit ends the process with a non-zero status and leaves the restart to the
// service supervisor.
type Exit struct{}

func (Exit) Reset(reason string) {
	logger.Errorf("Resetting node [%v]", reason)
	logger.StandardLogger().Exit(1)
}

// FakeResetter records reset requests and returns.
type FakeResetter struct {
	mu      sync.Mutex
	reasons []string
}

func (f *FakeResetter) Reset(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

func (f *FakeResetter) Reasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.reasons))
	copy(out, f.reasons)
	return out
}

// ByName returns the resetter for the -reset flag.
func ByName(name string) (Resetter, bool) {
	switch name {
	case "exit":
		return Exit{}, true
	case "reboot":
		return Reboot{}, true
	}
	return nil, false
}
