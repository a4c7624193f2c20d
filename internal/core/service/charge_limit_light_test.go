package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLight(soc float64) (*ChargeLimitLight, *fakeDevice) {
	dev := newFakeDevice("VIN0001", soc)
	return NewChargeLimitLight(dev, &fakeController{}, "entry", zap.NewNop()), dev
}

func TestSoCToBrightness(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(128, SoCToBrightness(50), "soc 50")
	assert.Equal(0, SoCToBrightness(0), "soc 0")
	assert.Equal(255, SoCToBrightness(100), "soc 100")
	assert.Equal(204, SoCToBrightness(80), "soc 80")
	assert.Equal(230, SoCToBrightness(90), "soc 90")

	for soc := 0; soc <= 100; soc++ {
		b := SoCToBrightness(float64(soc))
		assert.GreaterOrEqual(b, 0)
		assert.LessOrEqual(b, 255)
	}
}

func TestBrightnessToSoC(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(50, BrightnessToSoC(128), "brightness 128")
	assert.Equal(0, BrightnessToSoC(0), "brightness 0")
	assert.Equal(100, BrightnessToSoC(255), "brightness 255")
	assert.Equal(80, BrightnessToSoC(204), "brightness 204")

	for b := 0; b <= 255; b++ {
		soc := BrightnessToSoC(b)
		assert.GreaterOrEqual(soc, 0)
		assert.LessOrEqual(soc, 100)
	}
}

func TestBrightnessRoundTrip(t *testing.T) {

	// every integer percentage survives soc -> brightness -> soc
	for soc := 0; soc <= 100; soc++ {
		assert.Equal(t, soc, BrightnessToSoC(SoCToBrightness(float64(soc))), "soc %d", soc)
	}
}

func TestBrightnessBeforeRefresh(t *testing.T) {

	light, _ := newTestLight(80)

	_, err := light.Brightness()
	assert.ErrorIs(t, err, domain.ErrStateUnknown)
	assert.True(t, light.IsOn(), "always on, even before refresh")
}

func TestRefreshThenBrightness(t *testing.T) {

	require := require.New(t)

	light, dev := newTestLight(80)

	require.NoError(light.Refresh(context.Background()))
	b, err := light.Brightness()
	require.NoError(err)
	require.Equal(204, b)
	require.Equal(1, dev.updateCalls)

	// remote value changes, brightness follows after next refresh only
	dev.remoteSoC = 50
	b, err = light.Brightness()
	require.NoError(err)
	require.Equal(204, b, "cached until refresh")

	require.NoError(light.Refresh(context.Background()))
	b, err = light.Brightness()
	require.NoError(err)
	require.Equal(128, b)
}

func TestRefreshErrorPropagates(t *testing.T) {

	light, dev := newTestLight(80)
	updateErr := errors.New("vehicle asleep")
	dev.updateErr = updateErr

	err := light.Refresh(context.Background())
	assert.Same(t, updateErr, err, "error is returned unchanged")

	_, err = light.Brightness()
	assert.ErrorIs(t, err, domain.ErrStateUnknown, "cache untouched")
}

func TestRefreshClampsOutOfRangeValues(t *testing.T) {

	light, _ := newTestLight(120)

	require.NoError(t, light.Refresh(context.Background()))
	b, err := light.Brightness()
	require.NoError(t, err)
	assert.Equal(t, 255, b)
}

func TestRefreshConcurrentWithBrightness(t *testing.T) {

	light, dev := newTestLight(80)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, light.Refresh(context.Background()))
		}()
		go func() {
			defer wg.Done()
			b, err := light.Brightness()
			if err == nil {
				assert.Equal(t, 204, b)
			} else {
				assert.ErrorIs(t, err, domain.ErrStateUnknown)
			}
		}()
	}
	wg.Wait()

	b, err := light.Brightness()
	require.NoError(t, err)
	assert.Equal(t, 204, b)
	assert.Equal(t, 8, dev.updateCalls)
}

func TestTurnOnWithBrightness(t *testing.T) {

	require := require.New(t)

	light, dev := newTestLight(80)

	require.NoError(light.TurnOn(context.Background(), domain.TurnOnOptions{Brightness: domain.Brightness(128)}))
	require.Equal([]int{50}, dev.setCalls)

	require.NoError(light.TurnOn(context.Background(), domain.TurnOnOptions{Brightness: domain.Brightness(255)}))
	require.Equal([]int{50, 100}, dev.setCalls)

	// no optimistic update
	_, err := light.Brightness()
	require.ErrorIs(err, domain.ErrStateUnknown)
}

func TestTurnOnWithoutBrightness(t *testing.T) {

	light, dev := newTestLight(80)

	assert.NoError(t, light.TurnOn(context.Background(), domain.TurnOnOptions{}))
	assert.NoError(t, light.TurnOn(context.Background(), domain.TurnOnOptions{Brightness: domain.Brightness(0)}))
	assert.Empty(t, dev.setCalls, "no remote write")
}

func TestTurnOnErrorPropagates(t *testing.T) {

	light, dev := newTestLight(80)
	dev.setErr = errors.New("command failed")

	err := light.TurnOn(context.Background(), domain.TurnOnOptions{Brightness: domain.Brightness(200)})
	assert.Same(t, dev.setErr, err)
}

func TestTurnOffUnsupported(t *testing.T) {

	light, dev := newTestLight(80)

	err := light.TurnOff(context.Background(), domain.TurnOffOptions{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	assert.Empty(t, dev.setCalls, "no remote write")
	assert.Equal(t, 0, dev.updateCalls)
}

func TestSupportedFeatures(t *testing.T) {

	light, _ := newTestLight(80)

	assert.True(t, light.SupportedFeatures().Has(port.SupportBrightness))
}

func TestDiscovery(t *testing.T) {

	light, dev := newTestLight(80)

	d := light.Discovery()
	assert.Equal(t, "Car VIN0001 charge limit", d.Name)
	assert.Equal(t, domain.ChargeLimitEntityId(dev.info), d.Id)
	assert.Equal(t, "Car VIN0001", d.Device.Name)
	assert.True(t, d.Brightness)
}
