package domain

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_LIGHT_PREFIX = "light_"
)

// LightActorId returns the child actor name of the light entity identified by entityId.
func LightActorId(entityId string) string {
	return ACTOR_ID_LIGHT_PREFIX + entityId
}

// RefreshTick asks the receiver to refresh its entities from the vehicle.
type RefreshTick struct {
}

type RefreshRequest struct {
	ActorRequestMixIn
	EntityId string
}

type RefreshResponse struct {
	ActorResponseMixIn
	EntityId   string
	Brightness int
}

type GetLightStateRequest struct {
	ActorRequestMixIn
	EntityId string
}

type GetLightStateResponse struct {
	ActorResponseMixIn
	EntityId   string
	IsOn       bool
	Known      bool
	Brightness int
}

type LightCommandRequest struct {
	ActorRequestMixIn
	EntityId string
	Command  LightCommand
}

type LightCommandResponse struct {
	ActorResponseMixIn
	EntityId string
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
	Lights  []GenericLight
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type GetDiscoveryInfoRequest struct {
	ActorRequestMixIn
}

type GetDiscoveryInfoResponse struct {
	ActorResponseMixIn
	Lights []GenericLight
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
