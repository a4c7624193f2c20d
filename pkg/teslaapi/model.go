package teslaapi

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	VEHICLE_STATE_ONLINE  = "online"
	VEHICLE_STATE_ASLEEP  = "asleep"
	VEHICLE_STATE_OFFLINE = "offline"
)

var (
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrCommandFailed      = errors.New("command failed")
)

type Vehicle struct {
	Id          int64  `json:"id"`
	IdS         string `json:"id_s"`
	VehicleId   int64  `json:"vehicle_id"`
	Vin         string `json:"vin"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
	Model       string `json:"-"`
}

type ChargeState struct {
	ChargeLimitSoC    int    `json:"charge_limit_soc"`
	ChargeLimitSoCMin int    `json:"charge_limit_soc_min"`
	ChargeLimitSoCMax int    `json:"charge_limit_soc_max"`
	ChargeLimitSoCStd int    `json:"charge_limit_soc_std"`
	BatteryLevel      int    `json:"battery_level"`
	ChargingState     string `json:"charging_state"`
	Timestamp         int64  `json:"timestamp"`
}

type CommandResult struct {
	Result bool   `json:"result"`
	Reason string `json:"reason"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type apiResponse[T any] struct {
	Response T      `json:"response"`
	Count    int    `json:"count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// APIError is returned for any non 2xx answer of the owner API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("owner api error: status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrVehicleUnavailable:
		return e.StatusCode == http.StatusRequestTimeout
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// ModelFromVin decodes the model from the 4th character of the VIN.
func ModelFromVin(vin string) string {
	if len(vin) < 4 {
		return "Unknown"
	}
	switch vin[3] {
	case 'S':
		return "Model S"
	case 'X':
		return "Model X"
	case '3':
		return "Model 3"
	case 'Y':
		return "Model Y"
	}
	return "Unknown"
}
