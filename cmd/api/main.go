package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/chargelimit2mqtt/internal/adapter/actor"
	"github.com/berfenger/chargelimit2mqtt/internal/adapter/vehicle"
	"github.com/berfenger/chargelimit2mqtt/internal/config"
	"github.com/berfenger/chargelimit2mqtt/internal/core/actor"
	"github.com/berfenger/chargelimit2mqtt/internal/server"
	"github.com/berfenger/chargelimit2mqtt/internal/util/actorutil"
	"github.com/berfenger/chargelimit2mqtt/pkg/teslaapi"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	slog.Info("Using", "config", cfg.Redacted())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	controller := vehicle.NewController(
		teslaapi.NewController(vehicleAPI(cfg, logger), cfg.VehicleAPI.CacheTTL(), logger), logger)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, controller, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("could not spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func vehicleAPI(cfg *config.Config, logger *zap.Logger) teslaapi.API {
	if cfg.VehicleAPI.Mode == config.VEHICLE_API_MODE_TEST {
		logger.Warn("vehicle_api.mode is test, using an in-memory vehicle")
		return teslaapi.CreateTestClient()
	}
	return teslaapi.NewClient(teslaapi.ClientConfig{
		BaseURL:      cfg.VehicleAPI.BaseURL,
		AuthURL:      cfg.VehicleAPI.AuthURL,
		ClientId:     cfg.VehicleAPI.ClientId,
		AccessToken:  cfg.VehicleAPI.AccessToken,
		RefreshToken: cfg.VehicleAPI.RefreshToken,
		Timeout:      cfg.VehicleAPI.Timeout(),
	}, logger)
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}
