package vehicle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
	"github.com/berfenger/chargelimit2mqtt/pkg/teslaapi"

	"go.uber.org/zap"
)

const (
	DEFAULT_MIN_CHARGE_LIMIT = 50
	DEFAULT_MAX_CHARGE_LIMIT = 100
)

// ChargeLimitSlider is the device handle of the charge limit setting of one vehicle.
type ChargeLimitSlider struct {
	api    *teslaapi.Controller
	info   domain.VehicleInfo
	logger *zap.Logger

	mu             sync.RWMutex
	chargeLimitSoC float64
	minSoC         int
	maxSoC         int
}

func NewChargeLimitSlider(api *teslaapi.Controller, info domain.VehicleInfo, logger *zap.Logger) *ChargeLimitSlider {
	return &ChargeLimitSlider{
		api:    api,
		info:   info,
		logger: logger.With(zap.String("vin", info.Vin)),
		minSoC: DEFAULT_MIN_CHARGE_LIMIT,
		maxSoC: DEFAULT_MAX_CHARGE_LIMIT,
	}
}

func (s *ChargeLimitSlider) Type() string {
	return domain.DEVICE_TYPE_CHARGE_LIMIT
}

func (s *ChargeLimitSlider) Platform() string {
	return domain.PLATFORM_LIGHT
}

func (s *ChargeLimitSlider) Vehicle() domain.VehicleInfo {
	return s.info
}

// Update fetches the charge state and keeps the limit and its allowed range.
func (s *ChargeLimitSlider) Update(ctx context.Context) error {
	cs, err := s.api.ChargeState(ctx, s.info.Id)
	if err != nil {
		return mapError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chargeLimitSoC = float64(cs.ChargeLimitSoC)
	if cs.ChargeLimitSoCMin > 0 {
		s.minSoC = cs.ChargeLimitSoCMin
	}
	if cs.ChargeLimitSoCMax > 0 {
		s.maxSoC = cs.ChargeLimitSoCMax
	}
	s.logger.Debug("vehicle: charge state updated",
		zap.Int("charge_limit_soc", cs.ChargeLimitSoC), zap.Int("battery_level", cs.BatteryLevel))
	return nil
}

func (s *ChargeLimitSlider) ChargeLimitSoC() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chargeLimitSoC
}

// SetChargeLimitSoC writes soc, clamped to the range the vehicle accepts.
func (s *ChargeLimitSlider) SetChargeLimitSoC(ctx context.Context, soc int) error {
	s.mu.RLock()
	target := min(max(soc, s.minSoC), s.maxSoC)
	s.mu.RUnlock()
	if target != soc {
		s.logger.Info("vehicle: charge limit clamped", zap.Int("requested", soc), zap.Int("target", target))
	}
	if err := s.api.SetChargeLimit(ctx, s.info.Id, target); err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, teslaapi.ErrVehicleUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrVehicleUnavailable, err)
	}
	return err
}

// ensure interface compliance
var _ port.ChargeLimitDevice = (*ChargeLimitSlider)(nil)
