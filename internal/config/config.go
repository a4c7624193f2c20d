package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	MIN_POLL_INTERVAL_MILLIS = 5000
	MIN_API_TIMEOUT_MILLIS   = 1000
	REDACTED                 = "*redacted*"

	VEHICLE_API_MODE_OWNER = "owner"
	VEHICLE_API_MODE_TEST  = "test"
)

type Config struct {
	LogLevel   zapcore.Level
	VehicleAPI VehicleAPIConfig `mapstructure:"vehicle_api"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Poll       PollConfig       `mapstructure:"poll"`
	Port       uint             `mapstructure:"port"`
	HttpLog    bool             `mapstructure:"http_log"`
}

type VehicleAPIConfig struct {
	// Mode selects the owner API implementation: "owner" or "test" (in-memory vehicle).
	Mode            string
	BaseURL         string `mapstructure:"base_url"`
	AuthURL         string `mapstructure:"auth_url"`
	AccessToken     string `mapstructure:"access_token"`
	RefreshToken    string `mapstructure:"refresh_token"`
	ClientId        string `mapstructure:"client_id"`
	TimeoutMillis   uint32 `mapstructure:"timeout_millis"`
	CacheTTLSeconds uint32 `mapstructure:"cache_ttl_seconds"`
}

type PollConfig struct {
	IntervalMillis uint32 `mapstructure:"interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c VehicleAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c VehicleAPIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// TaskTimeout bounds a whole entity operation: a token refresh plus the API call.
func (c VehicleAPIConfig) TaskTimeout() time.Duration {
	return 2*c.Timeout() + time.Second
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMillis) * time.Millisecond
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Validate fixes the topics and checks the bounds of cfg.
func (cfg *Config) Validate() error {
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if cfg.Poll.IntervalMillis < MIN_POLL_INTERVAL_MILLIS {
		return fmt.Errorf("config param poll.interval_millis should be >= %d", MIN_POLL_INTERVAL_MILLIS)
	}
	if cfg.VehicleAPI.TimeoutMillis < MIN_API_TIMEOUT_MILLIS {
		return fmt.Errorf("config param vehicle_api.timeout_millis should be >= %d", MIN_API_TIMEOUT_MILLIS)
	}
	switch cfg.VehicleAPI.Mode {
	case VEHICLE_API_MODE_OWNER:
		if cfg.VehicleAPI.AccessToken == "" && cfg.VehicleAPI.RefreshToken == "" {
			return errors.New("config param vehicle_api.access_token or vehicle_api.refresh_token is required")
		}
	case VEHICLE_API_MODE_TEST:
	default:
		return fmt.Errorf("config param vehicle_api.mode %q is not one of owner, test", cfg.VehicleAPI.Mode)
	}
	return nil
}

// Redacted returns a copy of cfg safe to print.
func (cfg Config) Redacted() Config {
	if cfg.MQTT.Username != "" {
		cfg.MQTT.Username = REDACTED
	}
	if cfg.MQTT.Password != "" {
		cfg.MQTT.Password = REDACTED
	}
	if cfg.VehicleAPI.AccessToken != "" {
		cfg.VehicleAPI.AccessToken = REDACTED
	}
	if cfg.VehicleAPI.RefreshToken != "" {
		cfg.VehicleAPI.RefreshToken = REDACTED
	}
	return cfg
}
