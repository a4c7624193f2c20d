package teslaapi

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// TestClient is an in-memory owner API, used by tests and by the "test" api mode.
type TestClient struct {
	mu           sync.Mutex
	vehicles     []Vehicle
	chargeStates map[string]*ChargeState

	ChargeStateCalls int
	SetLimitCalls    int
	Asleep           bool
}

func CreateTestClient() *TestClient {
	client := &TestClient{
		chargeStates: make(map[string]*ChargeState),
	}
	client.AddVehicle(Vehicle{
		Id:          1492931337,
		IdS:         "1492931337",
		Vin:         "5YJ3E1EA7KF000001",
		DisplayName: "Roady",
		State:       VEHICLE_STATE_ONLINE,
	}, ChargeState{
		ChargeLimitSoC:    80,
		ChargeLimitSoCMin: 50,
		ChargeLimitSoCMax: 100,
		ChargeLimitSoCStd: 90,
		BatteryLevel:      63,
		ChargingState:     "Stopped",
	})
	return client
}

func (c *TestClient) AddVehicle(v Vehicle, cs ChargeState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v.IdS == "" {
		v.IdS = strconv.FormatInt(v.Id, 10)
	}
	c.vehicles = append(c.vehicles, v)
	c.chargeStates[v.IdS] = &cs
}

func (c *TestClient) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vehicles := make([]Vehicle, len(c.vehicles))
	for i, v := range c.vehicles {
		v.Model = ModelFromVin(v.Vin)
		vehicles[i] = v
	}
	return vehicles, nil
}

func (c *TestClient) ChargeState(ctx context.Context, vehicleId string) (*ChargeState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ChargeStateCalls++
	if c.Asleep {
		return nil, &APIError{StatusCode: 408, Body: `{"error":"vehicle unavailable"}`}
	}
	cs, ok := c.chargeStates[vehicleId]
	if !ok {
		return nil, &APIError{StatusCode: 404, Body: fmt.Sprintf("vehicle %s not found", vehicleId)}
	}
	copied := *cs
	return &copied, nil
}

func (c *TestClient) SetChargeLimit(ctx context.Context, vehicleId string, percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetLimitCalls++
	if c.Asleep {
		return &APIError{StatusCode: 408, Body: `{"error":"vehicle unavailable"}`}
	}
	cs, ok := c.chargeStates[vehicleId]
	if !ok {
		return &APIError{StatusCode: 404, Body: fmt.Sprintf("vehicle %s not found", vehicleId)}
	}
	if percent < cs.ChargeLimitSoCMin || percent > cs.ChargeLimitSoCMax {
		return fmt.Errorf("%w: set_charge_limit: out of range", ErrCommandFailed)
	}
	cs.ChargeLimitSoC = percent
	return nil
}

// ChargeLimit returns the stored charge limit of a vehicle, bypassing any cache.
func (c *TestClient) ChargeLimit(vehicleId string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cs, ok := c.chargeStates[vehicleId]; ok {
		return cs.ChargeLimitSoC
	}
	return -1
}

// Writes returns how many set_charge_limit commands were received.
func (c *TestClient) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SetLimitCalls
}

// ensure interface compliance
var _ API = (*TestClient)(nil)
