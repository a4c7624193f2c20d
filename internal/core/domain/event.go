package domain

import "fmt"

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// LightStateUpdateEvent carries the state of a light entity, brightness on the 0-255 scale.
type LightStateUpdateEvent struct {
	SensorUpdateEventMixIn
	IsOn       bool
	Brightness int
}

// ensure interface compliance
var _ SensorUpdateEvent = (*LightStateUpdateEvent)(nil)
