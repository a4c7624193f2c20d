package service

import (
	"context"
	"sync"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"
	"github.com/berfenger/chargelimit2mqtt/internal/core/port"
)

type fakeDevice struct {
	mu          sync.Mutex
	deviceType  string
	platform    string
	info        domain.VehicleInfo
	remoteSoC   float64
	updateErr   error
	setErr      error
	fetchedSoC  float64
	updateCalls int
	setCalls    []int
}

func newFakeDevice(vin string, soc float64) *fakeDevice {
	return &fakeDevice{
		deviceType: domain.DEVICE_TYPE_CHARGE_LIMIT,
		platform:   domain.PLATFORM_LIGHT,
		info: domain.VehicleInfo{
			Id:          "v_" + vin,
			Vin:         vin,
			DisplayName: "Car " + vin,
			Model:       "Model 3",
		},
		remoteSoC: soc,
	}
}

func (d *fakeDevice) Type() string                { return d.deviceType }
func (d *fakeDevice) Platform() string            { return d.platform }
func (d *fakeDevice) Vehicle() domain.VehicleInfo { return d.info }

func (d *fakeDevice) Update(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateCalls++
	if d.updateErr != nil {
		return d.updateErr
	}
	d.fetchedSoC = d.remoteSoC
	return nil
}

func (d *fakeDevice) ChargeLimitSoC() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetchedSoC
}

func (d *fakeDevice) SetChargeLimitSoC(ctx context.Context, soc int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setCalls = append(d.setCalls, soc)
	if d.setErr != nil {
		return d.setErr
	}
	d.remoteSoC = float64(soc)
	return nil
}

type fakeController struct {
	devices    []port.VehicleDevice
	connectErr error
}

func (c *fakeController) Connect(ctx context.Context) error {
	return c.connectErr
}

func (c *fakeController) Devices() []port.VehicleDevice {
	return c.devices
}

// plainDevice lacks the charge limit accessors.
type plainDevice struct {
	deviceType string
	platform   string
	info       domain.VehicleInfo
}

func (d plainDevice) Type() string                     { return d.deviceType }
func (d plainDevice) Platform() string                 { return d.platform }
func (d plainDevice) Vehicle() domain.VehicleInfo      { return d.info }
func (d plainDevice) Update(ctx context.Context) error { return nil }
