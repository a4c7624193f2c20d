package util

import (
	"github.com/berfenger/chargelimit2mqtt/internal/config"

	"go.uber.org/zap"
)

// LoadTestConfig returns a valid config running against the in-memory vehicle.
func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		VehicleAPI: config.VehicleAPIConfig{
			Mode:            "test",
			TimeoutMillis:   1000,
			CacheTTLSeconds: 5,
		},
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "chargelimit",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Poll: config.PollConfig{
			IntervalMillis: 5000,
		},
		Port: 8080,
	}
}
