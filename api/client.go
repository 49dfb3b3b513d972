// Package api is a thin client for the remote inventory API: one profile
// read and the transfer and equip mutations. It rate-limits requests but
// never retries them.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kasuganosora/vaultctl/config"
	"github.com/kasuganosora/vaultctl/inventory"
	"github.com/kasuganosora/vaultctl/transfer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProfileComponents are the component ids GetProfile requests: profiles,
// vault, characters, character inventories, equipment, instances, sockets.
var ProfileComponents = []int{100, 102, 200, 201, 205, 300, 305}

const errorCodeSuccess = 1

var _ transfer.Remote = (*Client)(nil)

// APIError is a non-success response envelope or HTTP status.
type APIError struct {
	HTTPStatus  int
	ErrorCode   int
	ErrorStatus string
	Message     string
}

func (e *APIError) Error() string {
	if e.ErrorStatus != "" {
		return fmt.Sprintf("api: %s (%d): %s", e.ErrorStatus, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("api: http %d", e.HTTPStatus)
}

type envelope struct {
	Response        json.RawMessage `json:"Response"`
	ErrorCode       int             `json:"ErrorCode"`
	ErrorStatus     string          `json:"ErrorStatus"`
	Message         string          `json:"Message"`
	ThrottleSeconds int             `json:"ThrottleSeconds"`
}

// RequestObserver is told about every completed round trip. status is 0
// when no response arrived. *metrics.Metrics implements it.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, took time.Duration)
}

// Client talks to the remote API for one account.
type Client struct {
	baseURL        string
	apiKey         string
	membershipType int
	membershipID   string

	httpClient *http.Client
	rest       *resty.Client
	tokens     TokenStore
	clock      Clock
	limiter    *rate.Limiter
	observer   RequestObserver
	logger     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option  { return func(cl *Client) { cl.httpClient = c } }
func WithClock(c Clock) Option              { return func(cl *Client) { cl.clock = c } }
func WithLimiter(l *rate.Limiter) Option    { return func(cl *Client) { cl.limiter = l } }
func WithObserver(o RequestObserver) Option { return func(cl *Client) { cl.observer = o } }

// NewClient creates a Client from the api config section.
func NewClient(cfg config.APIConfig, tokens TokenStore, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	burst := max(cfg.RateLimitBurst, 1)
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		membershipType: cfg.MembershipType,
		membershipID:   cfg.MembershipID,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		tokens:         tokens,
		clock:          SystemClock{},
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		logger:         logger,
	}
	for _, o := range opts {
		o(c)
	}
	c.rest = resty.NewWithClient(c.httpClient).
		SetBaseURL(c.baseURL).
		SetHeader("X-API-Key", c.apiKey)
	return c
}

// GetProfile fetches the account's characters and inventories.
func (c *Client) GetProfile(ctx context.Context) (*inventory.ProfileResponse, error) {
	comps := make([]string, len(ProfileComponents))
	for i, v := range ProfileComponents {
		comps[i] = strconv.Itoa(v)
	}
	path := fmt.Sprintf("/Destiny2/%d/Profile/%s/", c.membershipType, c.membershipID)
	query := map[string]string{"components": strings.Join(comps, ",")}

	var out inventory.ProfileResponse
	if err := c.do(ctx, "profile", http.MethodGet, path, query, nil, &out); err != nil {
		return nil, fmt.Errorf("api: get profile: %w", err)
	}
	return &out, nil
}

type transferBody struct {
	ItemReferenceHash uint32 `json:"itemReferenceHash"`
	StackSize         int    `json:"stackSize"`
	TransferToVault   bool   `json:"transferToVault"`
	ItemID            string `json:"itemId"`
	CharacterID       string `json:"characterId"`
	MembershipType    int    `json:"membershipType"`
}

// TransferItem moves an item into or out of the vault.
func (c *Client) TransferItem(ctx context.Context, req transfer.TransferRequest) error {
	body := transferBody{
		ItemReferenceHash: req.ItemHash,
		StackSize:         req.Count,
		TransferToVault:   req.ToVault,
		ItemID:            req.InstanceID,
		CharacterID:       req.CharacterID,
		MembershipType:    c.membershipType,
	}
	return c.do(ctx, "transfer", http.MethodPost, "/Destiny2/Actions/Items/TransferItem/", nil, body, nil)
}

type equipBody struct {
	ItemID         string `json:"itemId"`
	CharacterID    string `json:"characterId"`
	MembershipType int    `json:"membershipType"`
}

// EquipItem equips an item already on the character.
func (c *Client) EquipItem(ctx context.Context, instanceID, characterID string) error {
	body := equipBody{ItemID: instanceID, CharacterID: characterID, MembershipType: c.membershipType}
	return c.do(ctx, "equip", http.MethodPost, "/Destiny2/Actions/Items/EquipItem/", nil, body, nil)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query map[string]string, in, out interface{}) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if !tok.ExpiresAt.IsZero() && !c.clock.Now().Before(tok.ExpiresAt) {
		return ErrTokenExpired
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := c.rest.R().
		SetContext(ctx).
		SetAuthToken(tok.AccessToken).
		SetQueryParams(query)
	if in != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(in)
	}

	start := c.clock.Now()
	resp, err := req.Execute(method, path)
	if c.observer != nil {
		status := 0
		if err == nil {
			status = resp.StatusCode()
		}
		c.observer.ObserveRequest(endpoint, status, c.clock.Now().Sub(start))
	}
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Int("error_code", env.ErrorCode),
		zap.Duration("took", c.clock.Now().Sub(start)))

	if decodeErr != nil {
		if resp.StatusCode() != http.StatusOK {
			return &APIError{HTTPStatus: resp.StatusCode()}
		}
		return fmt.Errorf("api: decode response: %w", decodeErr)
	}
	if env.ErrorCode != errorCodeSuccess {
		return &APIError{
			HTTPStatus:  resp.StatusCode(),
			ErrorCode:   env.ErrorCode,
			ErrorStatus: env.ErrorStatus,
			Message:     env.Message,
		}
	}
	if env.ThrottleSeconds > 0 {
		c.logger.Info("api asked to slow down", zap.Int("seconds", env.ThrottleSeconds))
	}
	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("api: decode payload: %w", err)
		}
	}
	return nil
}
