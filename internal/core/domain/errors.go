package domain

import "errors"

var (
	// ErrUnsupportedOperation is a permanent rejection: the entity cannot do what was asked.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrStateUnknown is returned when an entity state is read before the first refresh.
	ErrStateUnknown = errors.New("state unknown, entity not refreshed yet")
	// ErrVehicleUnavailable is returned when the vehicle is asleep or offline.
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrUnknownEntity      = errors.New("unknown entity")
)
