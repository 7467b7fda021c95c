package radio

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	logger "github.com/sirupsen/logrus"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMs      = 250
)

// UplinkTopic is where the raw payload is published for a device.
func UplinkTopic(device string) string {
	return "pulsenode/" + device + "/uplink"
}

// MQTT holds a broker session only while active. The connection is the
// "radio": it is opened for a report and closed afterwards.
type MQTT struct {
	opts  *paho.ClientOptions
	topic string

	newClient func(*paho.ClientOptions) paho.Client

	mu     sync.Mutex
	client paho.Client
}

func NewMQTT(broker, device string) *MQTT {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("pulsenode-" + device).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetCleanSession(true)

	return &MQTT{
		opts:      opts,
		topic:     UplinkTopic(device),
		newClient: paho.NewClient,
	}
}

func (m *MQTT) Activate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		if m.client.IsConnected() {
			return nil
		}
		// the broker dropped us; release the old session first
		m.client.Disconnect(mqttQuiesceMs)
		m.client = nil
	}

	client := m.newClient(m.opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	m.client = client
	logger.Debugf("MQTT connected, topic [%v]", m.topic)
	return nil
}

func (m *MQTT) SendMessage(payload []byte) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return ErrNotActive
	}

	// QoS 0 (at-most-once), not retained
	token := client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (m *MQTT) Deactivate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	m.client.Disconnect(mqttQuiesceMs)
	m.client = nil
	return nil
}
