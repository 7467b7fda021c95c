package radio

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Sigfox uplink frames carry at most 12 bytes.
const MaxModemPayload = 12

const (
	modemReadTimeout = 2 * time.Second
	// a Sigfox uplink takes several seconds to go out on three frequencies
	modemSendTimeout = 45 * time.Second
)

// Modem drives a UART Sigfox modem (Wisol/LSM style AT command set).
type Modem struct {
	port string
	baud int

	open  func(*serial.Config) (io.ReadWriteCloser, error)
	clock clockwork.Clock

	mu   sync.Mutex
	conn io.ReadWriteCloser
	rd   *bufio.Reader
}

func NewModem(port string, baud int) *Modem {
	return &Modem{
		port:  port,
		baud:  baud,
		open:  openSerial,
		clock: clockwork.NewRealClock(),
	}
}

func openSerial(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(c)
}

func (m *Modem) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return nil
	}

	conn, err := m.open(&serial.Config{Name: m.port, Baud: m.baud, ReadTimeout: modemReadTimeout})
	if err != nil {
		return fmt.Errorf("open %v: %w", m.port, err)
	}
	m.conn = conn
	m.rd = bufio.NewReader(conn)

	// the first command after standby wakes the module
	if err := m.commandLocked("AT", modemReadTimeout); err != nil {
		m.closeLocked()
		return fmt.Errorf("modem not responding: %w", err)
	}
	return nil
}

func (m *Modem) SendMessage(payload []byte) error {
	if len(payload) > MaxModemPayload {
		return fmt.Errorf("%w: %v bytes", ErrPayloadTooLarge, len(payload))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return ErrNotActive
	}
	cmd := "AT$SF=" + strings.ToUpper(hex.EncodeToString(payload))
	return m.commandLocked(cmd, modemSendTimeout)
}

// Deactivate puts the module into deep sleep and closes the port.
func (m *Modem) Deactivate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.commandLocked("AT$P=2", modemReadTimeout)
	if cerr := m.closeLocked(); err == nil {
		err = cerr
	}
	return err
}

func (m *Modem) closeLocked() error {
	err := m.conn.Close()
	m.conn = nil
	m.rd = nil
	return err
}

// commandLocked writes cmd and reads lines until OK or ERROR. The serial
// read timeout yields empty reads, so the deadline is tracked here.
func (m *Modem) commandLocked(cmd string, timeout time.Duration) error {
	logger.Debugf("Modem > [%v]", cmd)
	if _, err := io.WriteString(m.conn, cmd+"\r\n"); err != nil {
		return fmt.Errorf("write %v: %w", cmd, err)
	}

	deadline := m.clock.Now().Add(timeout)
	for m.clock.Now().Before(deadline) {
		line, err := m.rd.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			logger.Debugf("Modem < [%v]", line)
		}
		switch {
		case line == "OK":
			return nil
		case strings.HasPrefix(line, "ERROR"):
			return fmt.Errorf("%v: modem replied [%v]", cmd, line)
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrNoProgress) {
			return fmt.Errorf("read reply to %v: %w", cmd, err)
		}
	}
	return fmt.Errorf("%v: no reply within %v", cmd, timeout)
}
