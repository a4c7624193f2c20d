package teslaapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestControllerConnect(t *testing.T) {

	ctrl := NewController(CreateTestClient(), time.Minute, zap.NewNop())

	require.NoError(t, ctrl.Connect(context.Background()))
	vehicles := ctrl.Vehicles()
	require.Len(t, vehicles, 1)
	assert.Equal(t, "Roady", vehicles[0].DisplayName)
	assert.Equal(t, "Model 3", vehicles[0].Model)
}

func TestControllerCachesChargeState(t *testing.T) {

	require := require.New(t)

	api := CreateTestClient()
	ctrl := NewController(api, time.Minute, zap.NewNop())

	cs, err := ctrl.ChargeState(context.Background(), "1492931337")
	require.NoError(err)
	require.Equal(80, cs.ChargeLimitSoC)

	_, err = ctrl.ChargeState(context.Background(), "1492931337")
	require.NoError(err)
	require.Equal(1, api.ChargeStateCalls, "second read served from cache")

	// a write invalidates the cached state
	require.NoError(ctrl.SetChargeLimit(context.Background(), "1492931337", 70))
	cs, err = ctrl.ChargeState(context.Background(), "1492931337")
	require.NoError(err)
	require.Equal(70, cs.ChargeLimitSoC)
	require.Equal(2, api.ChargeStateCalls)
}

func TestControllerWithoutCache(t *testing.T) {

	api := CreateTestClient()
	ctrl := NewController(api, 0, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := ctrl.ChargeState(context.Background(), "1492931337")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, api.ChargeStateCalls)
}

func TestControllerAsleepVehicle(t *testing.T) {

	api := CreateTestClient()
	api.Asleep = true
	ctrl := NewController(api, time.Minute, zap.NewNop())

	_, err := ctrl.ChargeState(context.Background(), "1492931337")
	assert.ErrorIs(t, err, ErrVehicleUnavailable)

	err = ctrl.SetChargeLimit(context.Background(), "1492931337", 70)
	assert.ErrorIs(t, err, ErrVehicleUnavailable)
}
