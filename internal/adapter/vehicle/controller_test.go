package vehicle

import (
	"context"
	"testing"
	"time"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
	"github.com/berfenger/chargelimit2mqtt/pkg/teslaapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testController(t *testing.T) (*Controller, *teslaapi.TestClient) {
	api := teslaapi.CreateTestClient()
	api.AddVehicle(teslaapi.Vehicle{
		Id:  1492931338,
		Vin: "5YJYGDEE0MF000002",
	}, teslaapi.ChargeState{
		ChargeLimitSoC:    90,
		ChargeLimitSoCMin: 50,
		ChargeLimitSoCMax: 100,
	})
	ctrl := NewController(teslaapi.NewController(api, time.Minute, zap.NewNop()), zap.NewNop())
	require.NoError(t, ctrl.Connect(context.Background()))
	return ctrl, api
}

func TestControllerDevices(t *testing.T) {

	ctrl, _ := testController(t)

	devices := ctrl.Devices()
	require.Len(t, devices, 2)
	for _, dev := range devices {
		assert.Equal(t, domain.DEVICE_TYPE_CHARGE_LIMIT, dev.Type())
		assert.Equal(t, domain.PLATFORM_LIGHT, dev.Platform())
		_, ok := dev.(port.ChargeLimitDevice)
		assert.True(t, ok, "charge limit device")
	}

	assert.Equal(t, "Roady", devices[0].Vehicle().DisplayName)
	// unnamed vehicles fall back to their VIN
	assert.Equal(t, "5YJYGDEE0MF000002", devices[1].Vehicle().DisplayName)
	assert.Equal(t, "Model Y", devices[1].Vehicle().Model)
}

func TestChargeLimitSliderUpdate(t *testing.T) {

	ctrl, _ := testController(t)
	dev := ctrl.Devices()[0].(port.ChargeLimitDevice)

	require.NoError(t, dev.Update(context.Background()))
	assert.Equal(t, 80.0, dev.ChargeLimitSoC())
}

func TestChargeLimitSliderSet(t *testing.T) {

	require := require.New(t)

	ctrl, api := testController(t)
	dev := ctrl.Devices()[0].(port.ChargeLimitDevice)

	require.NoError(dev.Update(context.Background()))
	require.NoError(dev.SetChargeLimitSoC(context.Background(), 65))
	require.Equal(65, api.ChargeLimit("1492931337"))

	// below the vehicle minimum
	require.NoError(dev.SetChargeLimitSoC(context.Background(), 20))
	require.Equal(50, api.ChargeLimit("1492931337"))

	// the write invalidated the cache, the update sees the new value
	require.NoError(dev.Update(context.Background()))
	require.Equal(50.0, dev.ChargeLimitSoC())
}

func TestChargeLimitSliderUnavailable(t *testing.T) {

	ctrl, api := testController(t)
	dev := ctrl.Devices()[0].(port.ChargeLimitDevice)
	api.Asleep = true

	err := dev.Update(context.Background())
	assert.ErrorIs(t, err, domain.ErrVehicleUnavailable)
	assert.ErrorIs(t, err, teslaapi.ErrVehicleUnavailable)

	err = dev.SetChargeLimitSoC(context.Background(), 70)
	assert.ErrorIs(t, err, domain.ErrVehicleUnavailable)
}
