package teslaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	DEFAULT_BASE_URL  = "https://owner-api.teslamotors.com"
	DEFAULT_AUTH_URL  = "https://auth.tesla.com/oauth2/v3/token"
	DEFAULT_CLIENT_ID = "ownerapi"
	TOKEN_SCOPE       = "openid email offline_access"
	TOKEN_EXPIRY_SKEW = 1 * time.Minute
)

// API is the subset of the owner API the controller needs.
type API interface {
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	ChargeState(ctx context.Context, vehicleId string) (*ChargeState, error)
	SetChargeLimit(ctx context.Context, vehicleId string, percent int) error
}

type ClientConfig struct {
	BaseURL      string
	AuthURL      string
	ClientId     string
	AccessToken  string
	RefreshToken string
	Timeout      time.Duration
}

type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiry       time.Time
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DEFAULT_BASE_URL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DEFAULT_AUTH_URL
	}
	if cfg.ClientId == "" {
		cfg.ClientId = DEFAULT_CLIENT_ID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}
	if cfg.AccessToken != "" {
		if exp, err := TokenExpiry(cfg.AccessToken); err == nil {
			c.expiry = exp
		} else {
			logger.Warn("teslaapi: could not read access token expiry", zap.Error(err))
		}
	}
	return c
}

func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var resp apiResponse[[]Vehicle]
	if err := c.do(ctx, http.MethodGet, "/api/1/vehicles", nil, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Response {
		resp.Response[i].Model = ModelFromVin(resp.Response[i].Vin)
	}
	return resp.Response, nil
}

func (c *Client) ChargeState(ctx context.Context, vehicleId string) (*ChargeState, error) {
	var resp apiResponse[ChargeState]
	path := fmt.Sprintf("/api/1/vehicles/%s/data_request/charge_state", url.PathEscape(vehicleId))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Response, nil
}

func (c *Client) SetChargeLimit(ctx context.Context, vehicleId string, percent int) error {
	var resp apiResponse[CommandResult]
	path := fmt.Sprintf("/api/1/vehicles/%s/command/set_charge_limit", url.PathEscape(vehicleId))
	if err := c.do(ctx, http.MethodPost, path, map[string]int{"percent": percent}, &resp); err != nil {
		return err
	}
	// already_set is not a failure
	if !resp.Response.Result && resp.Response.Reason != "already_set" {
		return fmt.Errorf("%w: set_charge_limit: %s", ErrCommandFailed, resp.Response.Reason)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("teslaapi: request", zap.String("method", method), zap.String("path", path))
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{StatusCode: res.StatusCode, Body: string(resBody)}
	}
	return json.Unmarshal(resBody, out)
}

// token returns a valid access token, refreshing it when it is about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && (c.expiry.IsZero() || time.Until(c.expiry) > TOKEN_EXPIRY_SKEW) {
		return c.accessToken, nil
	}
	if c.refreshToken == "" {
		if c.accessToken != "" {
			// expired and nothing to refresh with, let the API decide
			return c.accessToken, nil
		}
		return "", fmt.Errorf("%w: no access or refresh token", ErrUnauthorized)
	}

	c.logger.Info("teslaapi: refreshing access token")
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.cfg.ClientId},
		"refresh_token": {c.refreshToken},
		"scope":         {TOKEN_SCOPE},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: res.StatusCode, Body: string(resBody)}
	}

	var tr TokenResponse
	if err := json.Unmarshal(resBody, &tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in refresh response", ErrUnauthorized)
	}
	c.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		c.refreshToken = tr.RefreshToken
	}
	if exp, err := TokenExpiry(tr.AccessToken); err == nil {
		c.expiry = exp
	} else if tr.ExpiresIn > 0 {
		c.expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	} else {
		c.expiry = time.Time{}
	}
	return c.accessToken, nil
}

// TokenExpiry reads the exp claim of a JWT access token. The signature is not verified.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// ensure interface compliance
var _ API = (*Client)(nil)
