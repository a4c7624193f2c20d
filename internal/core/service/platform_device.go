package service

import (
	"context"
	"fmt"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
)

// PlatformDevice holds what every entity built from a vehicle device shares.
type PlatformDevice struct {
	name          string
	entityId      string
	configEntryId string
	device        port.VehicleDevice
	controller    port.VehicleController
}

func NewPlatformDevice(device port.VehicleDevice, controller port.VehicleController, configEntryId string, entityId string, suffix string) PlatformDevice {
	return PlatformDevice{
		name:          fmt.Sprintf("%s %s", device.Vehicle().DisplayName, suffix),
		entityId:      entityId,
		configEntryId: configEntryId,
		device:        device,
		controller:    controller,
	}
}

func (d *PlatformDevice) Name() string {
	return d.name
}

func (d *PlatformDevice) EntityId() string {
	return d.entityId
}

func (d *PlatformDevice) ConfigEntryId() string {
	return d.configEntryId
}

func (d *PlatformDevice) Controller() port.VehicleController {
	return d.controller
}

// DiscoveryDevice is the Home Assistant device the entity is attached to.
func (d *PlatformDevice) DiscoveryDevice() domain.Device {
	return domain.VehicleDevice(d.device.Vehicle())
}

// Refresh runs the device update hook.
func (d *PlatformDevice) Refresh(ctx context.Context) error {
	return d.device.Update(ctx)
}
