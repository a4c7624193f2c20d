package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
	"github.com/berfenger/chargelimit2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	LIGHT_STATE_STARTING   = "starting"
	LIGHT_STATE_IDLE       = "idle"
	LIGHT_STATE_REFRESHING = "refreshing"
	LIGHT_STATE_COMMANDING = "commanding"
)

// LightEntityActor owns one light entity. Every call into the entity is
// serialized by the actor, remote calls run as background tasks.
type LightEntityActor struct {
	actorutil.ActorWithStates
	stash       *actorutil.Stash
	light       port.Light
	eventStream *eventstream.EventStream
	taskTimeout time.Duration
	// refresh before the first state is published
	refreshOnStart bool

	published      bool
	lastBrightness int

	logger *zap.Logger
}

type refreshResult struct {
	err     error
	replyTo *actor.PID
}

type commandResult struct {
	err     error
	command domain.LightCommand
	replyTo *actor.PID
}

func NewLightEntityActor(light port.Light, eventStream *eventstream.EventStream, taskTimeout time.Duration, refreshOnStart bool, logger *zap.Logger) *LightEntityActor {
	act := &LightEntityActor{
		ActorWithStates: actorutil.NewActorWithStates(),
		stash:           &actorutil.Stash{},
		light:           light,
		eventStream:     eventStream,
		taskTimeout:     taskTimeout,
		refreshOnStart:  refreshOnStart,
		logger:          actorutil.ActorLogger(domain.LightActorId(light.EntityId()), logger),
	}
	act.Become(actorutil.NamedState{StateName: LIGHT_STATE_STARTING, Fn: act.StartingReceive})
	return act
}

func (state *LightEntityActor) Receive(ctx actor.Context) {
	state.Behavior.Receive(ctx)
}

func (state *LightEntityActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("light@starting started")
		state.Become(actorutil.NamedState{StateName: LIGHT_STATE_IDLE, Fn: state.DefaultReceive})
		state.stash.UnstashAll(ctx)
		if state.refreshOnStart {
			state.refresh(ctx, nil)
		}
	case *actor.Restarting:
		state.stash.Clear()
	default:
		state.logger.Debug("light@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *LightEntityActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("light@idle ActorHealthRequest")
		ctx.Respond(state.healthResponse())
	case domain.RefreshTick:
		state.logger.Debug("light@idle RefreshTick")
		state.refresh(ctx, nil)
	case domain.RefreshRequest:
		state.logger.Debug("light@idle RefreshRequest")
		state.refresh(ctx, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.GetLightStateRequest:
		state.logger.Debug("light@idle GetLightStateRequest")
		resp := domain.GetLightStateResponse{
			EntityId: state.light.EntityId(),
			IsOn:     state.light.IsOn(),
		}
		if brightness, err := state.light.Brightness(); err == nil {
			resp.Known = true
			resp.Brightness = brightness
		}
		actorutil.ForRequest(msg).Respond(ctx, resp)
	case domain.LightCommandRequest:
		state.logger.Debug("light@idle LightCommandRequest", zap.Any("command", msg.Command))
		replyTo := actorutil.ForRequest(msg).ReplyTo(ctx)
		if err := msg.Command.Validate(); err != nil {
			state.logger.Warn("light@idle invalid command", zap.Error(err))
			actorutil.RespondTo(ctx, replyTo, domain.LightCommandResponse{
				ActorResponseMixIn: domain.ErrorResponse(err),
				EntityId:           state.light.EntityId(),
			})
			return
		}
		state.command(ctx, msg.Command, replyTo)
	case *actor.Stopping:
		state.logger.Debug("light@idle stopping")
	default:
		state.logger.Debug("light@idle default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *LightEntityActor) RefreshingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case refreshResult:
		if msg.err != nil {
			if errors.Is(msg.err, domain.ErrVehicleUnavailable) {
				state.logger.Info("light@refreshing vehicle unavailable", zap.Error(msg.err))
			} else {
				state.logger.Error("light@refreshing refresh failed", zap.Error(msg.err))
			}
			actorutil.RespondTo(ctx, msg.replyTo, domain.RefreshResponse{
				ActorResponseMixIn: domain.ErrorResponse(msg.err),
				EntityId:           state.light.EntityId(),
			})
		} else {
			brightness, err := state.light.Brightness()
			if err == nil {
				state.publishState(brightness, false)
			}
			actorutil.RespondTo(ctx, msg.replyTo, domain.RefreshResponse{
				ActorResponseMixIn: domain.ErrorResponse(err),
				EntityId:           state.light.EntityId(),
				Brightness:         brightness,
			})
		}
		state.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.healthResponse())
	case domain.RefreshTick:
		// a refresh is already running
		state.logger.Debug("light@refreshing drop RefreshTick")
	default:
		state.logger.Debug("light@refreshing stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *LightEntityActor) CommandingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case commandResult:
		switch {
		case errors.Is(msg.err, domain.ErrUnsupportedOperation):
			state.logger.Warn("light@commanding command rejected", zap.String("state", msg.command.State), zap.Error(msg.err))
			// the caller may have assumed the new state, publish the real one again
			if brightness, err := state.light.Brightness(); err == nil {
				state.publishState(brightness, true)
			}
		case msg.err != nil:
			state.logger.Error("light@commanding command failed", zap.Error(msg.err))
		default:
			state.logger.Info("light@commanding command done", zap.Any("command", msg.command))
			if msg.command.Brightness != nil && *msg.command.Brightness > 0 {
				// observe the written value
				ctx.Send(ctx.Self(), domain.RefreshTick{})
			}
		}
		actorutil.RespondTo(ctx, msg.replyTo, domain.LightCommandResponse{
			ActorResponseMixIn: domain.ErrorResponse(msg.err),
			EntityId:           state.light.EntityId(),
		})
		state.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.healthResponse())
	default:
		state.logger.Debug("light@commanding stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *LightEntityActor) refresh(ctx actor.Context, replyTo *actor.PID) {
	actorutil.NewContextTask(ctx, state.taskTimeout, func(c context.Context) (*refreshResult, error) {
		return &refreshResult{replyTo: replyTo}, state.light.Refresh(c)
	}).Recover(func(err error) refreshResult {
		return refreshResult{err: err, replyTo: replyTo}
	}).PipeTo(ctx.Self())
	state.BecomeStacked(actorutil.NamedState{StateName: LIGHT_STATE_REFRESHING, Fn: state.RefreshingReceive})
}

func (state *LightEntityActor) command(ctx actor.Context, cmd domain.LightCommand, replyTo *actor.PID) {
	actorutil.NewContextTask(ctx, state.taskTimeout, func(c context.Context) (*commandResult, error) {
		var err error
		if cmd.IsTurnOn() {
			err = state.light.TurnOn(c, cmd.TurnOnOptions())
		} else {
			err = state.light.TurnOff(c, domain.TurnOffOptions{})
		}
		return &commandResult{command: cmd, replyTo: replyTo}, err
	}).Recover(func(err error) commandResult {
		return commandResult{err: err, command: cmd, replyTo: replyTo}
	}).PipeTo(ctx.Self())
	state.BecomeStacked(actorutil.NamedState{StateName: LIGHT_STATE_COMMANDING, Fn: state.CommandingReceive})
}

// publishState emits the light state when it changed, on first publish or when forced.
func (state *LightEntityActor) publishState(brightness int, force bool) {
	if state.published && !force && brightness == state.lastBrightness {
		return
	}
	state.published = true
	state.lastBrightness = brightness
	state.logger.Debug("light: publish state", zap.Int("brightness", brightness))
	state.eventStream.Publish(domain.LightStateUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: state.light.EntityId(),
		},
		IsOn:       state.light.IsOn(),
		Brightness: brightness,
	})
}

func (state *LightEntityActor) healthResponse() domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.LightActorId(state.light.EntityId()),
		Healthy: true,
		State:   state.StateName(),
	}
}
