package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/chargelimit2mqtt/internal/config"
	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *MQTTClient {
	cfg := config.Config{
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "loremtopic",
			HADiscoveryTopic: "homeassistant",
		},
	}
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestLightCommandParse(t *testing.T) {

	assert := assert.New(t)

	r := lightCommandExtractor("loremtopic")
	matches := r.FindAllStringSubmatch("loremtopic/light/0a1b2c3d_charge_limit/set", 1)

	assert.Equal("0a1b2c3d_charge_limit", matches[0][1], "entity id extract")
}

func TestLightCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := lightCommandExtractor("loremtopic")

	assert.Len(r.FindAllStringSubmatch("loremtopic/light/0a1b2c3d_charge_limit/state", 1), 0, "state topic")
	assert.Len(r.FindAllStringSubmatch("other/light/0a1b2c3d_charge_limit/set", 1), 0, "other base topic")
}

func TestParseLightCommand(t *testing.T) {

	require := require.New(t)
	client := testClient()

	cmd, err := client.parseLightCommand("loremtopic/light/abc_charge_limit/set", []byte(`{"state":"ON","brightness":204}`))
	require.NoError(err)
	require.Equal("abc_charge_limit", cmd.EntityId)
	require.Equal(COMMAND_LIGHT, cmd.Command)
	require.True(cmd.Light.IsTurnOn())
	require.Equal(204, *cmd.Light.Brightness)

	cmd, err = client.parseLightCommand("loremtopic/light/abc_charge_limit/set", []byte(`{"state":"on"}`))
	require.NoError(err)
	require.True(cmd.Light.IsTurnOn())
	require.Nil(cmd.Light.Brightness)

	cmd, err = client.parseLightCommand("loremtopic/light/abc_charge_limit/set", []byte("OFF"))
	require.NoError(err)
	require.True(cmd.Light.IsTurnOff())

	_, err = client.parseLightCommand("loremtopic/light/abc_charge_limit/set", []byte("{lorem"))
	require.Error(err)

	_, err = client.parseLightCommand("loremtopic/light/abc_charge_limit/state", []byte("ON"))
	require.ErrorIs(err, ErrNotACommand)
}

func TestLightStatePayload(t *testing.T) {

	payload, err := LightStatePayload(domain.LightStateUpdateEvent{IsOn: true, Brightness: 204})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"ON","brightness":204,"color_mode":"brightness"}`, payload)

	payload, err = LightStatePayload(domain.LightStateUpdateEvent{IsOn: false})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"OFF"}`, payload)
}

func TestTopics(t *testing.T) {

	client := testClient()

	assert.Equal(t, "loremtopic/bridge/state", client.BridgeStateTopic())
	assert.Equal(t, "loremtopic/light/abc/state", client.LightStateTopic("abc"))
	assert.Equal(t, "loremtopic/light/abc/set", client.LightCommandTopic("abc"))
	assert.Equal(t, "loremtopic/light/+/set", client.commandTopic())
}

func TestLightDiscoveryMessage(t *testing.T) {

	client := testClient()

	dev := domain.VehicleDevice(domain.VehicleInfo{Vin: "5YJ3E1EA7KF000001", DisplayName: "Roady", Model: "Model 3"})
	entityId := domain.ChargeLimitEntityId(domain.VehicleInfo{Vin: "5YJ3E1EA7KF000001"})
	light := domain.ChargeLimitLight(dev, entityId)

	assert.Equal(t, "homeassistant/light/"+dev.Id+"/"+entityId+"/config", client.HADiscoveryLightTopic(light))

	payload, err := json.Marshal(GenericLightToHADiscoveryMessage(client, light))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "json", decoded["schema"])
	assert.Equal(t, true, decoded["brightness"])
	assert.Equal(t, float64(255), decoded["brightness_scale"])
	assert.Equal(t, []any{"brightness"}, decoded["supported_color_modes"])
	assert.Equal(t, "loremtopic/light/"+entityId+"/set", decoded["command_topic"])
	assert.Equal(t, "loremtopic/light/"+entityId+"/state", decoded["state_topic"])
	assert.Equal(t, "loremtopic/bridge/state", decoded["availability_topic"])
	assert.Equal(t, "Roady charge limit", decoded["name"])
}

func TestBridgeSensorDiscoveryMessage(t *testing.T) {

	client := testClient()

	sensors := domain.BridgeSensors(domain.BridgeDevice("loremtopic"))
	require.Len(t, sensors, 1)

	msg := GenericSensorToHADiscoveryMessage(client, sensors[0])
	assert.Equal(t, "loremtopic/bridge/state", msg.StateTopic)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(t, MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
	assert.Equal(t, domain.DEVICE_CLASS_CONNECTIVITY, msg.DeviceClass)
	assert.Equal(t, "homeassistant/binary_sensor/"+sensors[0].Device.Id+"/bridge/config", client.HADiscoverySensorTopic(sensors[0]))
}
