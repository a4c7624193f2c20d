package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string
	DeviceClass       string // connectivity
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
}

// GenericLight describes a light entity for discovery purposes.
type GenericLight struct {
	Device          Device
	Id              string
	Name            string
	UniqueId        string
	Icon            string
	Brightness      bool
	BrightnessScale int
}
