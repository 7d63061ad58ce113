// File: internal/infra/adapters/cdk/client.go
package cdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"context"

	"github.com/rs/zerolog"

	"cdk-billing/internal/config"
	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/ports/adapter"
	"cdk-billing/internal/infra/metrics"
)

var _ adapter.CodeService = (*Client)(nil)
var _ adapter.TokenValidator = (*Client)(nil)

// timeLayout is the wire format the CDK backend expects.
const timeLayout = "2006-01-02 15:04:05"

// Client talks to the external CDK backend: minting, renewal, and bearer
// token validation for revenue scopes.
type Client struct {
	acquireAPI  string
	renewAPI    string
	validateAPI string
	http        *http.Client
	notifier    adapter.ExceptionNotifier
	log         *zerolog.Logger
}

func NewClient(cfg config.CDKConfig, notifier adapter.ExceptionNotifier, logger *zerolog.Logger) *Client {
	return &Client{
		acquireAPI:  cfg.AcquireAPI,
		renewAPI:    cfg.RenewAPI,
		validateAPI: cfg.ValidateAPI,
		http:        &http.Client{Timeout: 15 * time.Second},
		notifier:    notifier,
		log:         logger,
	}
}

type backendEnvelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Acquire mints a code from group's pool, valid through expiry.
func (c *Client) Acquire(ctx context.Context, expiry time.Time, group string) (string, error) {
	body := map[string]any{
		"group":      group,
		"expireTime": expiry.Format(timeLayout),
	}
	env, err := c.post(ctx, c.acquireAPI, body)
	if err != nil {
		metrics.IncCDKCall("acquire", false)
		c.log.Error().Err(err).Str("group", group).Msg("acquire cdk failed")
		return "", fmt.Errorf("%w: %v", domain.ErrCodeAcquisition, err)
	}
	if env.Code != 0 {
		metrics.IncCDKCall("acquire", false)
		c.log.Error().Int("error_code", env.Code).Str("group", group).Msg("acquire cdk rejected")
		return "", fmt.Errorf("%w: backend code %d", domain.ErrCodeAcquisition, env.Code)
	}
	var code string
	if err := json.Unmarshal(env.Data, &code); err != nil || code == "" {
		metrics.IncCDKCall("acquire", false)
		return "", fmt.Errorf("%w: empty data", domain.ErrCodeAcquisition)
	}
	metrics.IncCDKCall("acquire", true)
	c.log.Info().Str("cdk", code).Msg("cdk acquired")
	return code, nil
}

// Renew moves an existing code's expiry. Failures are reported to the
// exception sink for operator visibility.
func (c *Client) Renew(ctx context.Context, cdk string, expiry time.Time) error {
	body := map[string]any{
		"cdk":        cdk,
		"expireTime": expiry.Format(timeLayout),
	}
	env, err := c.post(ctx, c.renewAPI, body)
	if err != nil {
		metrics.IncCDKCall("renew", false)
		c.log.Error().Err(err).Str("cdk", cdk).Msg("renew cdk failed")
		c.notifier.Notify(ctx, "Auth", err)
		return err
	}
	if env.Code != 0 {
		metrics.IncCDKCall("renew", false)
		c.log.Error().Int("error_code", env.Code).Str("cdk", cdk).Msg("renew cdk rejected")
		return fmt.Errorf("renew cdk: backend code %d", env.Code)
	}
	metrics.IncCDKCall("renew", true)
	c.log.Info().Str("cdk", cdk).Time("expire", expiry).Msg("cdk renewed")
	return nil
}

// Validate checks a revenue-scope bearer credential. Fails closed.
func (c *Client) Validate(ctx context.Context, rid, token string) bool {
	u, err := url.Parse(c.validateAPI)
	if err != nil {
		return false
	}
	q := u.Query()
	q.Set("rid", rid)
	q.Set("token", token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("rid", rid).Msg("validate token request failed")
		c.notifier.Notify(ctx, "Auth", err)
		return false
	}
	defer resp.Body.Close()

	var out struct {
		Code int `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	if out.Code != 0 {
		c.log.Error().Int("code", out.Code).Str("rid", rid).Msg("token validation rejected")
		return false
	}
	return true
}

func (c *Client) post(ctx context.Context, api string, body map[string]any) (*backendEnvelope, error) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	env := &backendEnvelope{Code: 1}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}
