package domain

import "fmt"

const (
	LIGHT_STATE_ON  = "ON"
	LIGHT_STATE_OFF = "OFF"
)

// LightCommand is a user request addressed to a light entity.
// A nil Brightness means the caller did not ask for a brightness change.
type LightCommand struct {
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
}

// TurnOnOptions carries the optional arguments of a turn on request.
type TurnOnOptions struct {
	Brightness *int
}

// TurnOffOptions is empty, the turn off call accepts no arguments yet.
type TurnOffOptions struct {
}

func (c LightCommand) IsTurnOn() bool {
	return c.State == LIGHT_STATE_ON
}

func (c LightCommand) IsTurnOff() bool {
	return c.State == LIGHT_STATE_OFF
}

func (c LightCommand) Validate() error {
	if !c.IsTurnOn() && !c.IsTurnOff() {
		return fmt.Errorf("invalid light state %q", c.State)
	}
	if c.Brightness != nil && (*c.Brightness < 0 || *c.Brightness > 255) {
		return fmt.Errorf("brightness %d out of range [0,255]", *c.Brightness)
	}
	return nil
}

func (c LightCommand) TurnOnOptions() TurnOnOptions {
	return TurnOnOptions{Brightness: c.Brightness}
}

// Brightness returns a pointer to value, handy to build commands and options.
func Brightness(value int) *int {
	return &value
}
