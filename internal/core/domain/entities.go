package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE      = "bridge"
	LIGHT_ID_CHARGE_LIMIT       = "charge_limit"
	DEVICE_CLASS_CONNECTIVITY   = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC     = "diagnostic"
	ENTITY_CLASS_CONFIG         = "config"
	SENSOR_TYPE_SENSOR          = "sensor"
	SENSOR_TYPE_BINARY          = "binary_sensor"
	BRIGHTNESS_SCALE            = 255
	DEVICE_TYPE_CHARGE_LIMIT    = "chargelimit slider"
	PLATFORM_LIGHT              = "light"
	VEHICLE_MANUFACTURER        = "Tesla"
	CHARGE_LIMIT_ICON           = "mdi:battery-charging-80"
	BRIDGE_MANUFACTURER         = "ACasal"
	BRIDGE_MODEL                = "Chargelimit2MQTT"
	CHARGE_LIMIT_NAME_SUFFIX    = "charge limit"
	VEHICLE_DEVICE_ID_PREFIX    = "cl_vehicle"
	BRIDGE_DEVICE_ID_PREFIX     = "chargelimit_bridge"
	CHARGE_LIMIT_ENTITY_ID_TMPL = "%s_" + LIGHT_ID_CHARGE_LIMIT
)

// VehicleInfo is the static description of a vehicle as reported by the owner API.
type VehicleInfo struct {
	Id          string
	Vin         string
	DisplayName string
	Model       string
	Version     string
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("%s_%s", BRIDGE_DEVICE_ID_PREFIX, md5HashShort(baseTopic)),
		Manufacturer: BRIDGE_MANUFACTURER,
		Model:        BRIDGE_MODEL,
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Chargelimit %s", md5HashShort(baseTopic)),
	}
}

func VehicleDevice(info VehicleInfo) Device {
	return Device{
		Id:           fmt.Sprintf("%s_%s", VEHICLE_DEVICE_ID_PREFIX, md5HashShort(info.Vin)),
		Version:      info.Version,
		Manufacturer: VEHICLE_MANUFACTURER,
		Model:        info.Model,
		Name:         info.DisplayName,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// ChargeLimitEntityId is the object id of the charge limit light of a vehicle.
// It is used both as actor name suffix and as MQTT topic segment.
func ChargeLimitEntityId(info VehicleInfo) string {
	return fmt.Sprintf(CHARGE_LIMIT_ENTITY_ID_TMPL, md5HashShort(info.Vin))
}

func ChargeLimitLight(vehicleDevice Device, entityId string) GenericLight {
	return GenericLight{
		Device:          vehicleDevice,
		Id:              entityId,
		Name:            fmt.Sprintf("%s %s", vehicleDevice.Name, CHARGE_LIMIT_NAME_SUFFIX),
		UniqueId:        uniqueId(vehicleDevice.Id, LIGHT_ID_CHARGE_LIMIT),
		Icon:            CHARGE_LIMIT_ICON,
		Brightness:      true,
		BrightnessScale: BRIGHTNESS_SCALE,
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
