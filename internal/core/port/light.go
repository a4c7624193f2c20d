package port

import (
	"context"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
)

type LightFeature uint32

const (
	SupportBrightness LightFeature = 1 << iota
)

func (f LightFeature) Has(feature LightFeature) bool {
	return f&feature != 0
}

// Entity is the host side view of anything exposed to Home Assistant.
type Entity interface {
	EntityId() string
	Name() string
	Refresh(ctx context.Context) error
}

// Light is the capability contract of a dimmable light entity.
type Light interface {
	Entity
	IsOn() bool
	Brightness() (int, error)
	TurnOn(ctx context.Context, opts domain.TurnOnOptions) error
	TurnOff(ctx context.Context, opts domain.TurnOffOptions) error
	SupportedFeatures() LightFeature
	Discovery() domain.GenericLight
}
