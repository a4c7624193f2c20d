package vehicle

import (
	"context"
	"sync"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
	"github.com/berfenger/chargelimit2mqtt/pkg/teslaapi"

	"go.uber.org/zap"
)

// Controller exposes the vehicles of an owner API account as device handles.
type Controller struct {
	api    *teslaapi.Controller
	logger *zap.Logger

	mu      sync.RWMutex
	devices []port.VehicleDevice
}

func NewController(api *teslaapi.Controller, logger *zap.Logger) *Controller {
	return &Controller{
		api:    api,
		logger: logger,
	}
}

// Connect discovers the vehicles and builds one charge limit slider for each.
func (c *Controller) Connect(ctx context.Context) error {
	if err := c.api.Connect(ctx); err != nil {
		return err
	}
	var devices []port.VehicleDevice
	for _, v := range c.api.Vehicles() {
		c.logger.Info("vehicle: found",
			zap.String("vin", v.Vin), zap.String("name", v.DisplayName), zap.String("state", v.State))
		devices = append(devices, NewChargeLimitSlider(c.api, vehicleInfo(v), c.logger))
	}
	c.mu.Lock()
	c.devices = devices
	c.mu.Unlock()
	return nil
}

func (c *Controller) Devices() []port.VehicleDevice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]port.VehicleDevice(nil), c.devices...)
}

func vehicleInfo(v teslaapi.Vehicle) domain.VehicleInfo {
	name := v.DisplayName
	if name == "" {
		name = v.Vin
	}
	return domain.VehicleInfo{
		Id:          v.IdS,
		Vin:         v.Vin,
		DisplayName: name,
		Model:       v.Model,
	}
}

// ensure interface compliance
var _ port.VehicleController = (*Controller)(nil)
