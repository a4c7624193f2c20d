package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// ConfigEntry is one integration instance: a controller and the devices it discovered, by platform.
type ConfigEntry struct {
	Id         string
	Controller port.VehicleController
	Devices    map[string][]port.VehicleDevice
}

// Registry keeps the config entries of the bridge. It is owned by the host and passed to setup calls.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*ConfigEntry
}

// AddEntitiesFunc receives the entities built by a setup call.
// When updateBeforeAdd is set, entities must be refreshed before their state is first read.
type AddEntitiesFunc func(entities []port.Light, updateBeforeAdd bool)

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*ConfigEntry),
	}
}

// Register connects the controller and stores its devices under entryId.
func (r *Registry) Register(ctx context.Context, entryId string, controller port.VehicleController) (*ConfigEntry, error) {
	if err := controller.Connect(ctx); err != nil {
		return nil, err
	}
	entry := &ConfigEntry{
		Id:         entryId,
		Controller: controller,
		Devices:    make(map[string][]port.VehicleDevice),
	}
	for _, device := range controller.Devices() {
		entry.Devices[device.Platform()] = append(entry.Devices[device.Platform()], device)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entryId] = entry
	return entry, nil
}

func (r *Registry) Entry(entryId string) (*ConfigEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[entryId]
	return entry, ok
}

func (r *Registry) Remove(entryId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, entryId)
}

// SetupLightEntry builds a ChargeLimitLight for every charge limit slider of the entry.
func SetupLightEntry(registry *Registry, entryId string, addEntities AddEntitiesFunc, logger *zap.Logger) error {
	entry, ok := registry.Entry(entryId)
	if !ok {
		return fmt.Errorf("config entry %s not registered", entryId)
	}

	var entities []port.Light
	for _, device := range entry.Devices[domain.PLATFORM_LIGHT] {
		if device.Type() != domain.DEVICE_TYPE_CHARGE_LIMIT {
			continue
		}
		clDevice, ok := device.(port.ChargeLimitDevice)
		if !ok {
			logger.Sugar().Warnf("setup: device %s tagged %q has no charge limit interface", device.Vehicle().DisplayName, device.Type())
			continue
		}
		entities = append(entities, NewChargeLimitLight(clDevice, entry.Controller, entryId, logger))
	}
	logger.Sugar().Infof("setup: %d charge limit lights for entry %s", len(entities), entryId)
	addEntities(entities, true)
	return nil
}
