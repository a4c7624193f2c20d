package teslaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"go.uber.org/zap"
)

var ControllerCacheSize = 1024 * 1024 // 1MB

// Controller discovers vehicles and caches their charge state so that
// entities sharing a vehicle do not hit the API once each.
type Controller struct {
	api      API
	cache    *freecache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	vehicles []Vehicle
}

func NewController(api API, cacheTTL time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		api:      api,
		cache:    freecache.NewCache(ControllerCacheSize),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Connect lists the vehicles of the account.
func (c *Controller) Connect(ctx context.Context) error {
	vehicles, err := c.api.ListVehicles(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.vehicles = vehicles
	c.mu.Unlock()
	c.logger.Sugar().Infof("teslaapi: %d vehicles found", len(vehicles))
	return nil
}

func (c *Controller) Vehicles() []Vehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Vehicle(nil), c.vehicles...)
}

// ChargeState returns the charge state of a vehicle, from cache when fresh enough.
func (c *Controller) ChargeState(ctx context.Context, vehicleId string) (*ChargeState, error) {
	key := chargeStateKey(vehicleId)
	if cached, err := c.cache.Get(key); err == nil {
		var cs ChargeState
		if err := json.Unmarshal(cached, &cs); err == nil {
			c.logger.Debug("teslaapi: charge state cache hit", zap.String("vehicle", vehicleId))
			return &cs, nil
		}
	} else if err != freecache.ErrNotFound {
		return nil, err
	}

	cs, err := c.api.ChargeState(ctx, vehicleId)
	if err != nil {
		return nil, err
	}
	if ttl := int(c.cacheTTL.Seconds()); ttl > 0 {
		if payload, err := json.Marshal(cs); err == nil {
			if err := c.cache.Set(key, payload, ttl); err != nil {
				c.logger.Warn("teslaapi: could not cache charge state", zap.Error(err))
			}
		}
	}
	return cs, nil
}

// SetChargeLimit writes the charge limit and drops the cached charge state.
func (c *Controller) SetChargeLimit(ctx context.Context, vehicleId string, percent int) error {
	if err := c.api.SetChargeLimit(ctx, vehicleId, percent); err != nil {
		return err
	}
	c.cache.Del(chargeStateKey(vehicleId))
	return nil
}

func chargeStateKey(vehicleId string) []byte {
	return []byte(fmt.Sprintf("charge_state/%s", vehicleId))
}
