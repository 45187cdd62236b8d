// Package smartsheet is a minimal client for the Smartsheet REST API covering
// exactly what the notification flow needs: single-row reads and webhook
// lifecycle management.
package smartsheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"evalnotify_backend/platform/logger"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
)

type Client struct {
	baseURL string
	token   string
	sheetID int64
	read    *http.Client
	write   *http.Client
	log     *logger.Logger
}

func NewClient(baseURL string, token string, sheetID int64, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		sheetID: sheetID,
		read:    &http.Client{Timeout: readTimeout},
		write:   &http.Client{Timeout: writeTimeout},
		log:     log,
	}
}

// GetRow reads a single row limited to the given column ids.
func (c *Client) GetRow(ctx context.Context, rowID int64, columnIDs []int64) (Row, error) {
	if c.token == "" {
		return Row{}, fmt.Errorf("smartsheet token not configured")
	}
	if c.sheetID == 0 {
		return Row{}, fmt.Errorf("smartsheet sheet id not configured")
	}

	ids := make([]string, len(columnIDs))
	for i, id := range columnIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	url := fmt.Sprintf("%s/sheets/%d/rows/%d?columnIds=%s", c.baseURL, c.sheetID, rowID, strings.Join(ids, ","))

	var row Row
	if err := c.do(ctx, c.read, http.MethodGet, url, nil, &row); err != nil {
		return Row{}, err
	}
	return row, nil
}

// CreateWebhook registers a callback URL scoped to the configured sheet,
// subscribing to all event types.
func (c *Client) CreateWebhook(ctx context.Context, name string, callbackURL string) (Webhook, error) {
	payload := createWebhookRequest{
		Name:        name,
		CallbackURL: callbackURL,
		Scope:       "sheet",
		ScopeID:     c.sheetID,
		Events:      []string{"*.*"},
		Version:     1,
	}

	var result webhookResult
	if err := c.do(ctx, c.write, http.MethodPost, c.baseURL+"/webhooks", payload, &result); err != nil {
		return Webhook{}, err
	}
	return result.Result, nil
}

// SetWebhookEnabled toggles the enabled flag on an existing webhook. Smartsheet
// only completes enablement after the challenge handshake succeeds.
func (c *Client) SetWebhookEnabled(ctx context.Context, webhookID int64, enabled bool) (Webhook, error) {
	url := fmt.Sprintf("%s/webhooks/%d", c.baseURL, webhookID)

	var result webhookResult
	if err := c.do(ctx, c.write, http.MethodPut, url, updateWebhookRequest{Enabled: enabled}, &result); err != nil {
		return Webhook{}, err
	}
	return result.Result, nil
}

// DeleteWebhook removes a webhook by id.
func (c *Client) DeleteWebhook(ctx context.Context, webhookID int64) error {
	url := fmt.Sprintf("%s/webhooks/%d", c.baseURL, webhookID)
	return c.do(ctx, c.write, http.MethodDelete, url, nil, nil)
}

// GetCurrentUser is the connectivity probe for the management surface.
func (c *Client) GetCurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, c.write, http.MethodGet, c.baseURL+"/users/me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, method string, url string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal smartsheet payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("smartsheet request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		if c.log != nil {
			c.log.Warn("smartsheet api error", "method", method, "status", resp.StatusCode)
		}
		return fmt.Errorf("smartsheet returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode smartsheet response: %w", err)
	}
	return nil
}
