package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/chargelimit2mqtt/internal/config"
	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
	COMMAND_LIGHT        = "light"
	CLIENT_ID_PREFIX     = "chargelimit"
	COLOR_MODE           = "brightness"
)

var ErrNotACommand = errors.New("not a command topic")

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("%s_%s", CLIENT_ID_PREFIX, uuid.NewString()))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:             mqtt.NewClient(opts),
		cfg:                cfg.MQTT,
		lightCommandRegexp: lightCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client             mqtt.Client
	cfg                config.MQTTConfig
	lightCommandRegexp *regexp.Regexp
}

type ParsedMQTTCommand struct {
	EntityId string
	Command  string
	Payload  string
	Light    *domain.LightCommand
}

// lightStatePayload is the JSON schema state of a light.
type lightStatePayload struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
	ColorMode  string `json:"color_mode,omitempty"`
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) BinarySensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/binary_sensor/%s/state", c.baseTopic(), sensorId)
}

func (c *MQTTClient) LightStateTopic(entityId string) string {
	return fmt.Sprintf("%s/light/%s/state", c.baseTopic(), entityId)
}

func (c *MQTTClient) LightCommandTopic(entityId string) string {
	return fmt.Sprintf("%s/light/%s/set", c.baseTopic(), entityId)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.parseLightCommand(msg.Topic(), msg.Payload())
}

func (c *MQTTClient) parseLightCommand(topic string, payload []byte) (*ParsedMQTTCommand, error) {
	matches := c.lightCommandRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 || len(matches[0]) != 2 {
		return nil, ErrNotACommand
	}
	cmd, err := ParseLightCommandPayload(payload)
	if err != nil {
		return nil, err
	}
	return &ParsedMQTTCommand{
		EntityId: matches[0][1],
		Command:  COMMAND_LIGHT,
		Payload:  string(payload),
		Light:    cmd,
	}, nil
}

// ParseLightCommandPayload reads a JSON schema light command. A bare ON/OFF payload is accepted too.
func ParseLightCommandPayload(payload []byte) (*domain.LightCommand, error) {
	trimmed := strings.TrimSpace(string(payload))
	switch strings.ToUpper(trimmed) {
	case domain.LIGHT_STATE_ON:
		return &domain.LightCommand{State: domain.LIGHT_STATE_ON}, nil
	case domain.LIGHT_STATE_OFF:
		return &domain.LightCommand{State: domain.LIGHT_STATE_OFF}, nil
	}
	var cmd domain.LightCommand
	if err := json.Unmarshal([]byte(trimmed), &cmd); err != nil {
		return nil, fmt.Errorf("invalid light command payload: %w", err)
	}
	cmd.State = strings.ToUpper(cmd.State)
	return &cmd, nil
}

// LightStatePayload renders a light state update for the state topic.
func LightStatePayload(event domain.LightStateUpdateEvent) (string, error) {
	state := lightStatePayload{State: domain.LIGHT_STATE_OFF}
	if event.IsOn {
		brightness := event.Brightness
		state = lightStatePayload{
			State:      domain.LIGHT_STATE_ON,
			Brightness: &brightness,
			ColorMode:  COLOR_MODE,
		}
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/light/+/set", c.baseTopic())
}

func lightCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/light/([a-zA-Z0-9_]+)/set$", regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
