package actor

import (
	"context"
	"fmt"
	"time"

	adactor "github.com/berfenger/chargelimit2mqtt/internal/adapter/actor"
	"github.com/berfenger/chargelimit2mqtt/internal/config"
	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
	"github.com/berfenger/chargelimit2mqtt/internal/core/service"
	"github.com/berfenger/chargelimit2mqtt/internal/scheduler"
	. "github.com/berfenger/chargelimit2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	CONFIG_ENTRY_ID  = "default"
	REFRESH_JOB_NAME = "refresh"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	registry           *service.Registry
	controller         port.VehicleController
	lights             []port.Light
	lightActors        map[string]*actor.PID
	mqttActor          *actor.PID
	scheduler          *scheduler.Scheduler
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	healthy   map[string]bool
	expected  int
	respondTo *actor.PID
}

type setupResult struct {
	lights          []port.Light
	updateBeforeAdd bool
	err             error
}

func NewMasterOfPuppetsActor(config config.Config, controller port.VehicleController, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       &eventstream.EventStream{},
		registry:          service.NewRegistry(),
		controller:        controller,
		mqttActorProvider: mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck.reset()
		state.lightActors = make(map[string]*actor.PID)

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// connect the controller and build the entities in background
		state.setupEntry(ctx)
		state.behavior.Become(state.SetupReceive)
	case *actor.Restarting:
		state.stopScheduler()
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) SetupReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case setupResult:
		if msg.err != nil {
			state.logger.Error("master@setup setup failed", zap.Error(msg.err))
			panic(msg.err)
		}
		state.lights = msg.lights

		// start one entity actor per light
		for _, light := range state.lights {
			pid, err := state.startLightActor(ctx, light, msg.updateBeforeAdd)
			if err != nil {
				panic(err)
			}
			state.lightActors[light.EntityId()] = pid
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		if err := state.startScheduler(ctx); err != nil {
			panic(err)
		}

		state.logger.Info("master@setup done", zap.Int("lights", len(state.lights)))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MASTER,
			Healthy: false,
			State:   "setup",
		})
	case *actor.Restarting:
		state.stopScheduler()
	default:
		state.logger.Debug("master@setup stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		state.currentHealthCheck.expected = 1 + len(state.lightActors)

		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Light Actor Requests
		for entityId, pid := range state.lightActors {
			actorId := domain.LightActorId(entityId)
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      actorId,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.RefreshTick:
		state.logger.Debug("master@default RefreshTick")
		for _, pid := range state.lightActors {
			ctx.Send(pid, msg)
		}
	case adactor.ParsedCommand:
		// redirect parsedCommand to entity actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil {
			return
		}
		cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
		if err != nil {
			state.logger.Warn("master@default invalid command", zap.Error(err))
			return
		}
		if pid, ok := state.lightActors[cmd.EntityId]; ok {
			ctx.Send(pid, cmd)
		} else {
			state.logger.Warn("master@default command for unknown entity", zap.String("entity", cmd.EntityId))
		}
	case domain.LightCommandRequest:
		state.routeToEntity(ctx, msg.EntityId, msg, domain.LightCommandResponse{
			ActorResponseMixIn: domain.ErrorResponse(unknownEntity(msg.EntityId)),
			EntityId:           msg.EntityId,
		})
	case domain.RefreshRequest:
		state.routeToEntity(ctx, msg.EntityId, msg, domain.RefreshResponse{
			ActorResponseMixIn: domain.ErrorResponse(unknownEntity(msg.EntityId)),
			EntityId:           msg.EntityId,
		})
	case domain.GetLightStateRequest:
		state.routeToEntity(ctx, msg.EntityId, msg, domain.GetLightStateResponse{
			ActorResponseMixIn: domain.ErrorResponse(unknownEntity(msg.EntityId)),
			EntityId:           msg.EntityId,
		})
	case domain.GetDiscoveryInfoRequest:
		state.logger.Debug("master@default GetDiscoveryInfoRequest")
		lights := make([]domain.GenericLight, 0, len(state.lights))
		for _, light := range state.lights {
			lights = append(lights, light.Discovery())
		}
		ForRequest(msg).Respond(ctx, domain.GetDiscoveryInfoResponse{
			Lights: lights,
		})
	case *actor.Terminated:
		state.logger.Warn("master@default child terminated", zap.String("who", msg.Who.Id))
	case *actor.Stopping:
		state.stopScheduler()
	case *actor.Restarting:
		state.stopScheduler()
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *MasterOfPuppetsActor) routeToEntity(ctx actor.Context, entityId string, msg any, notFound domain.ActorResponse) {
	pid, ok := state.lightActors[entityId]
	if !ok {
		state.logger.Warn("master@default request for unknown entity", zap.String("entity", entityId))
		if ctx.Sender() != nil {
			ctx.Respond(notFound)
		}
		return
	}
	ctx.RequestWithCustomSender(pid, msg, ctx.Sender())
}

func (state *MasterOfPuppetsActor) setupEntry(ctx actor.Context) {
	registry := state.registry
	controller := state.controller
	logger := state.logger
	NewContextTask(ctx, state.config.VehicleAPI.TaskTimeout(), func(c context.Context) (*setupResult, error) {
		if _, err := registry.Register(c, CONFIG_ENTRY_ID, controller); err != nil {
			return nil, err
		}
		result := &setupResult{}
		err := service.SetupLightEntry(registry, CONFIG_ENTRY_ID, func(entities []port.Light, updateBeforeAdd bool) {
			result.lights = entities
			result.updateBeforeAdd = updateBeforeAdd
		}, logger)
		return result, err
	}).Recover(func(err error) setupResult {
		return setupResult{err: err}
	}).PipeTo(ctx.Self())
}

func (state *MasterOfPuppetsActor) startScheduler(ctx actor.Context) error {
	sched := scheduler.New(state.logger)
	sched.Start()
	self := ctx.Self()
	system := ctx.ActorSystem()
	err := sched.Every(REFRESH_JOB_NAME, state.config.Poll.Interval(), func() {
		system.Root.Send(self, domain.RefreshTick{})
	})
	if err != nil {
		sched.Stop()
		return err
	}
	state.scheduler = sched
	return nil
}

func (state *MasterOfPuppetsActor) stopScheduler() {
	if state.scheduler != nil {
		state.scheduler.Stop()
		state.scheduler = nil
	}
}

func (state *MasterOfPuppetsActor) startLightActor(ctx actor.Context, light port.Light, refreshOnStart bool) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		state.logger.Error("master: light actor failure", zap.Any("reason", reason))
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(3, 10*time.Second, decider)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewLightEntityActor(light, state.eventStream, state.config.VehicleAPI.TaskTimeout(), refreshOnStart, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(props, domain.LightActorId(light.EntityId()))
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		state.logger.Error("master: hadiscovery actor failure", zap.Any("reason", reason))
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func unknownEntity(entityId string) error {
	return fmt.Errorf("%w: %s", domain.ErrUnknownEntity, entityId)
}

func (state *healthCheckResult) reset() {
	state.healthy = make(map[string]bool)
	state.expected = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return len(state.healthy) >= state.expected
}

func (state *healthCheckResult) allHealthy() bool {
	if !state.allReceived() {
		return false
	}
	for _, healthy := range state.healthy {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   "idle",
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
