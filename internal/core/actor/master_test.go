package actor

import (
	"strings"
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/chargelimit2mqtt/internal/adapter/actor"
	"github.com/berfenger/chargelimit2mqtt/internal/adapter/vehicle"
	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/mqtt"
	"github.com/berfenger/chargelimit2mqtt/internal/util"
	"github.com/berfenger/chargelimit2mqtt/pkg/teslaapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type publishedMessages struct {
	mu       sync.Mutex
	messages map[string]string
}

func (p *publishedMessages) sink(topic, payload string, _ bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = payload
}

func (p *publishedMessages) find(fn func(topic, payload string) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for topic, payload := range p.messages {
		if fn(topic, payload) {
			return true
		}
	}
	return false
}

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	defer as.Shutdown()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	api := teslaapi.CreateTestClient()
	controller := vehicle.NewController(teslaapi.NewController(api, cfg.VehicleAPI.CacheTTL(), logger), logger)
	published := &publishedMessages{messages: make(map[string]string)}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, controller, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, published.sink, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	defer context.Stop(pid)

	assert.Eventually(t, func() bool {
		res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 3*time.Second).Result()
		if err != nil {
			return false
		}
		healthResp, ok := res.(domain.ActorHealthResponse)
		return ok && healthResp.Healthy
	}, 5*time.Second, 100*time.Millisecond, "master healthy")

	info := domain.VehicleInfo{Vin: "5YJ3E1EA7KF000001"}
	entityId := domain.ChargeLimitEntityId(info)

	// state published after the first refresh
	assert.Eventually(t, func() bool {
		return published.find(func(topic, payload string) bool {
			return topic == "chargelimit/light/"+entityId+"/state" && strings.Contains(payload, `"brightness":204`)
		})
	}, 3*time.Second, 50*time.Millisecond, "light state published")

	// discovery published with the light config
	assert.Eventually(t, func() bool {
		return published.find(func(topic, payload string) bool {
			return strings.HasPrefix(topic, "homeassistant/light/") && strings.HasSuffix(topic, "/"+entityId+"/config")
		})
	}, 3*time.Second, 50*time.Millisecond, "light discovery published")

	// command routed through the master
	res, err := context.RequestFuture(pid, domain.LightCommandRequest{
		EntityId: entityId,
		Command:  domain.LightCommand{State: domain.LIGHT_STATE_ON, Brightness: domain.Brightness(179)},
	}, 3*time.Second).Result()
	require.NoError(t, err)
	cmdResp, ok := res.(domain.LightCommandResponse)
	require.True(t, ok)
	require.False(t, cmdResp.HasResponseError())
	assert.Equal(t, 70, api.ChargeLimit(testVehicleId))

	// MQTT command
	payload := `{"state":"ON","brightness":153}`
	context.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		EntityId: entityId,
		Command:  mqtt.COMMAND_LIGHT,
		Payload:  payload,
		Light:    &domain.LightCommand{State: domain.LIGHT_STATE_ON, Brightness: domain.Brightness(153)},
	}})
	assert.Eventually(t, func() bool {
		return api.ChargeLimit(testVehicleId) == 60
	}, 3*time.Second, 50*time.Millisecond, "mqtt command applied")

	// unknown entity
	res, err = context.RequestFuture(pid, domain.GetLightStateRequest{EntityId: "lorem"}, 3*time.Second).Result()
	require.NoError(t, err)
	stateResp, ok := res.(domain.GetLightStateResponse)
	require.True(t, ok)
	assert.ErrorIs(t, stateResp.GetResponseError(), domain.ErrUnknownEntity)

	// discovery info
	res, err = context.RequestFuture(pid, domain.GetDiscoveryInfoRequest{}, 3*time.Second).Result()
	require.NoError(t, err)
	discResp, ok := res.(domain.GetDiscoveryInfoResponse)
	require.True(t, ok)
	require.Len(t, discResp.Lights, 1)
	assert.Equal(t, entityId, discResp.Lights[0].Id)
	assert.Equal(t, "Roady charge limit", discResp.Lights[0].Name)
}
