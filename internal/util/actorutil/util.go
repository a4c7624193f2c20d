package actorutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel, zap.PanicLevel, zap.FatalLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
			NoColor:    true,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand turns a command received on a light command topic into the request for its entity actor.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.LightCommandRequest, error) {
	if cmd.Command != mqtt.COMMAND_LIGHT || cmd.Light == nil {
		return domain.LightCommandRequest{}, fmt.Errorf("unsupported command %q for %s", cmd.Command, cmd.EntityId)
	}
	if err := cmd.Light.Validate(); err != nil {
		return domain.LightCommandRequest{}, fmt.Errorf("invalid command for %s: %w", cmd.EntityId, err)
	}
	return domain.LightCommandRequest{
		EntityId: cmd.EntityId,
		Command:  *cmd.Light,
	}, nil
}
