package port

import (
	"context"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
)

// VehicleDevice is a device handle discovered by a VehicleController.
// The controller owns it, entities only keep a reference.
type VehicleDevice interface {
	// Type is the device type tag, e.g. "chargelimit slider".
	Type() string
	// Platform is the entity platform the device belongs to, e.g. "light".
	Platform() string
	Vehicle() domain.VehicleInfo
	// Update refreshes the device state from the vehicle.
	Update(ctx context.Context) error
}

// ChargeLimitDevice is the handle of a vehicle charge limit setting.
type ChargeLimitDevice interface {
	VehicleDevice
	// ChargeLimitSoC returns the last fetched charge limit, percent.
	ChargeLimitSoC() float64
	// SetChargeLimitSoC writes the charge limit to the vehicle, percent.
	SetChargeLimitSoC(ctx context.Context, soc int) error
}

type VehicleController interface {
	Connect(ctx context.Context) error
	Devices() []VehicleDevice
}
