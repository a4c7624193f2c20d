package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func defaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.Set("vehicle_api.refresh_token", "lorem")
	return v
}

func TestCheckMQTTTopic(t *testing.T) {

	topic, err := CheckMQTTTopic("ChargeLimit_2")
	require.NoError(t, err)
	assert.Equal(t, "chargelimit_2", topic)

	_, err = CheckMQTTTopic("charge/limit")
	assert.Error(t, err)

	_, err = CheckMQTTTopic("")
	assert.Error(t, err)
}

func TestFromViperDefaults(t *testing.T) {

	cfg, err := FromViper(defaultViper())
	require.NoError(t, err)

	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel)
	assert.Equal(t, "chargelimit", cfg.MQTT.BaseTopic)
	assert.Equal(t, "homeassistant", cfg.MQTT.HADiscoveryTopic)
	assert.Equal(t, uint32(60000), cfg.Poll.IntervalMillis)
	assert.Equal(t, uint32(10000), cfg.VehicleAPI.TimeoutMillis)
	assert.Equal(t, "owner", cfg.VehicleAPI.Mode)
	assert.Equal(t, uint(8080), cfg.Port)
}

func TestFromViperYAML(t *testing.T) {

	v := defaultViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
log_level: debug
vehicle_api:
  mode: test
  timeout_millis: 2000
mqtt:
  base_topic: MyCars
  ha_discovery_enable: true
poll:
  interval_millis: 15000
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "test", cfg.VehicleAPI.Mode)
	assert.Equal(t, "mycars", cfg.MQTT.BaseTopic)
	assert.True(t, cfg.MQTT.HADiscoveryEnable)
	assert.Equal(t, uint32(15000), cfg.Poll.IntervalMillis)
	assert.Equal(t, 5*cfg.VehicleAPI.Timeout()/2, cfg.VehicleAPI.TaskTimeout())
}

func TestLoadFromEnv(t *testing.T) {

	t.Setenv("PORT", "")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHARGELIMIT_PORT", "9090")
	t.Setenv("CHARGELIMIT_VEHICLE_API_ACCESS_TOKEN", "tok")
	t.Setenv("CHARGELIMIT_MQTT_HOST", "broker.lan")
	t.Setenv("CHARGELIMIT_MQTT_HA_DISCOVERY_ENABLE", "true")
	t.Setenv("CHARGELIMIT_POLL_INTERVAL_MILLIS", "15000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.VehicleAPI.AccessToken)
	assert.Equal(t, "broker.lan", cfg.MQTT.Host)
	assert.True(t, cfg.MQTT.HADiscoveryEnable)
	assert.Equal(t, uint32(15000), cfg.Poll.IntervalMillis)
	assert.Equal(t, uint(9090), cfg.Port)
	assert.Equal(t, 1883, cfg.MQTT.Port)
}

func TestValidateBounds(t *testing.T) {

	v := defaultViper()
	v.Set("poll.interval_millis", 1000)
	_, err := FromViper(v)
	assert.ErrorContains(t, err, "poll.interval_millis")

	v = defaultViper()
	v.Set("vehicle_api.timeout_millis", 10)
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "vehicle_api.timeout_millis")

	v = defaultViper()
	v.Set("vehicle_api.refresh_token", "")
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "token")

	v = defaultViper()
	v.Set("vehicle_api.mode", "carrier_pigeon")
	_, err = FromViper(v)
	assert.Error(t, err)

	v = defaultViper()
	v.Set("mqtt.base_topic", "a/b")
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "base topic")
}

func TestRedacted(t *testing.T) {

	cfg := Config{
		MQTT:       MQTTConfig{Username: "user", Password: "pass"},
		VehicleAPI: VehicleAPIConfig{RefreshToken: "secret"},
	}
	redacted := cfg.Redacted()
	assert.Equal(t, REDACTED, redacted.MQTT.Password)
	assert.Equal(t, REDACTED, redacted.VehicleAPI.RefreshToken)
	assert.Equal(t, "", redacted.VehicleAPI.AccessToken)
	// the original is untouched
	assert.Equal(t, "pass", cfg.MQTT.Password)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLogLevel("trace"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLogLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, ParseLogLevel("lorem"))
}
