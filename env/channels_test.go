package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelsDefaults(t *testing.T) {
	chans, err := Channels(Args{})
	require.NoError(t, err)
	require.Len(t, chans, 2)

	assert.Equal(t, uint8(1), chans[0].ID)
	assert.True(t, chans[0].Enabled)
	assert.Equal(t, Sensor1In, chans[0].Pin)
	assert.False(t, chans[1].Enabled)

	// the defaults must not be modified by callers
	chans[0].Pin = "GPIO99"
	assert.Equal(t, Sensor1In, DefaultChannels[0].Pin)
}

func TestChannelsOverrides(t *testing.T) {
	on := true
	pin := "GPIO22"
	edge := "falling"
	chans, err := Channels(Args{Sensor2: &on, Pin2: &pin, Edge2: &edge})
	require.NoError(t, err)

	assert.True(t, chans[1].Enabled)
	assert.Equal(t, "GPIO22", chans[1].Pin)
	assert.Equal(t, "falling", chans[1].Edge)
}

func TestChannelsMissingPin(t *testing.T) {
	empty := ""
	on := true
	saved := DefaultChannels[1].Pin
	DefaultChannels[1].Pin = ""
	defer func() { DefaultChannels[1].Pin = saved }()

	_, err := Channels(Args{Sensor2: &on, Pin2: &empty})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	t.Setenv(EnvDevice, "gauge-7")
	assert.Equal(t, "gauge-7", Lookup(EnvDevice, DefaultDevice))
	assert.Equal(t, DefaultMQTTBroker, Lookup("PULSENODE_UNSET_FOR_TEST", DefaultMQTTBroker))
}
