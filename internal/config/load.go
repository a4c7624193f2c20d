package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "chargelimit"

// Load reads the config from the environment (CHARGELIMIT_*) and, when
// CONFIG_FILE points to an existing file, from that file.
func Load() (*Config, error) {
	v := viper.New()

	// alias PORT => CHARGELIMIT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("CHARGELIMIT_PORT", port)
	}

	SetDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	// mqtt.host => CHARGELIMIT_MQTT_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			v.SetConfigFile(cfgFile)

			err = v.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the config held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("vehicle_api.mode", VEHICLE_API_MODE_OWNER)
	v.SetDefault("vehicle_api.base_url", "https://owner-api.teslamotors.com")
	v.SetDefault("vehicle_api.auth_url", "https://auth.tesla.com/oauth2/v3/token")
	v.SetDefault("vehicle_api.client_id", "ownerapi")
	v.SetDefault("vehicle_api.access_token", "")
	v.SetDefault("vehicle_api.refresh_token", "")
	v.SetDefault("vehicle_api.timeout_millis", 10000)
	v.SetDefault("vehicle_api.cache_ttl_seconds", 30)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.base_topic", "chargelimit")
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("poll.interval_millis", 60000)
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
}
