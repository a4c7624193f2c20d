package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"

	"go.uber.org/zap"
)

// ChargeLimitLight presents the charge limit of a vehicle as an always-on dimmable light.
// Brightness 0-255 maps to a charge limit of 0-100%.
type ChargeLimitLight struct {
	PlatformDevice
	device         port.ChargeLimitDevice
	mu             sync.RWMutex
	chargeLimitSoC *float64
	logger         *zap.Logger
}

func NewChargeLimitLight(device port.ChargeLimitDevice, controller port.VehicleController, configEntryId string, logger *zap.Logger) *ChargeLimitLight {
	pd := NewPlatformDevice(device, controller, configEntryId, domain.ChargeLimitEntityId(device.Vehicle()), domain.CHARGE_LIMIT_NAME_SUFFIX)
	return &ChargeLimitLight{
		PlatformDevice: pd,
		device:         device,
		logger:         logger.With(zap.String("entity", pd.EntityId()), zap.String("entry", pd.ConfigEntryId())),
	}
}

func (l *ChargeLimitLight) Refresh(ctx context.Context) error {
	l.logger.Debug("chargelimit: updating", zap.String("name", l.Name()))
	if err := l.PlatformDevice.Refresh(ctx); err != nil {
		return err
	}
	soc := clampSoC(l.device.ChargeLimitSoC())
	// a refresh abandoned on timeout may still land here
	l.mu.Lock()
	l.chargeLimitSoC = &soc
	l.mu.Unlock()
	l.logger.Sugar().Debugf("chargelimit: %s chargelimit_soc is %f", l.Name(), soc)
	return nil
}

func (l *ChargeLimitLight) Brightness() (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.chargeLimitSoC == nil {
		return 0, domain.ErrStateUnknown
	}
	return SoCToBrightness(*l.chargeLimitSoC), nil
}

// IsOn is always true, a charge limit cannot be disabled.
func (l *ChargeLimitLight) IsOn() bool {
	return true
}

func (l *ChargeLimitLight) TurnOn(ctx context.Context, opts domain.TurnOnOptions) error {
	// a zero brightness is falsy and skipped like a missing one
	if opts.Brightness == nil || *opts.Brightness == 0 {
		return nil
	}
	soc := BrightnessToSoC(*opts.Brightness)
	l.logger.Sugar().Debugf("chargelimit: %s setting chargelimit soc to %d%%", l.Name(), soc)
	return l.device.SetChargeLimitSoC(ctx, soc)
}

func (l *ChargeLimitLight) TurnOff(ctx context.Context, opts domain.TurnOffOptions) error {
	return fmt.Errorf("%w: the charge limit of %s cannot be turned off", domain.ErrUnsupportedOperation, l.Name())
}

func (l *ChargeLimitLight) SupportedFeatures() port.LightFeature {
	return port.SupportBrightness
}

func (l *ChargeLimitLight) Discovery() domain.GenericLight {
	dev := l.DiscoveryDevice()
	light := domain.ChargeLimitLight(dev, l.EntityId())
	light.Name = l.Name()
	return light
}

// SoCToBrightness converts a 0-100 percentage to the 0-255 brightness scale.
func SoCToBrightness(soc float64) int {
	return int(math.RoundToEven(clampSoC(soc) / 100.0 * domain.BRIGHTNESS_SCALE))
}

// BrightnessToSoC converts a 0-255 brightness to a 0-100 percentage.
func BrightnessToSoC(brightness int) int {
	b := math.Max(0, math.Min(domain.BRIGHTNESS_SCALE, float64(brightness)))
	return int(math.RoundToEven(b / domain.BRIGHTNESS_SCALE * 100.0))
}

func clampSoC(soc float64) float64 {
	return math.Max(0, math.Min(100, soc))
}

// ensure interface compliance
var _ port.Light = (*ChargeLimitLight)(nil)
