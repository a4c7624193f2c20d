package server

import (
	"errors"
	"net/http"

	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type lightStateResponse struct {
	EntityId   string `json:"entity_id"`
	State      string `json:"state"`
	Brightness *int   `json:"brightness,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/lights/:id", s.GetLightHandler)
	e.POST("/lights/:id", s.LightCommandHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) GetLightHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetLightStateRequest{EntityId: c.Param("id")}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	}
	response, ok := res.(domain.GetLightStateResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if response.HasResponseError() {
		status := http.StatusBadGateway
		if errors.Is(response.GetResponseError(), domain.ErrUnknownEntity) {
			status = http.StatusNotFound
		}
		return c.JSON(status, errorResponse{Error: response.GetResponseError().Error()})
	}
	body := lightStateResponse{
		EntityId: response.EntityId,
		State:    domain.LIGHT_STATE_OFF,
	}
	if response.IsOn {
		body.State = domain.LIGHT_STATE_ON
	}
	if response.Known {
		brightness := response.Brightness
		body.Brightness = &brightness
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) LightCommandHandler(c echo.Context) error {
	var cmd domain.LightCommand
	if err := c.Bind(&cmd); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err := cmd.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.LightCommandRequest{
		EntityId: c.Param("id"),
		Command:  cmd,
	}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	}
	response, ok := res.(domain.LightCommandResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if err := response.GetResponseError(); err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, domain.ErrUnknownEntity):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrUnsupportedOperation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, domain.ErrVehicleUnavailable):
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, errorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
