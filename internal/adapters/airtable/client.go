// Package airtable appends records to an Airtable table.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNotConfigured is returned when the API key or base is missing.
var ErrNotConfigured = errors.New("airtable: api key and base id are required")

const defaultBaseURL = "https://api.airtable.com/v0"

// Client implements ports.TableSink.
type Client struct {
	apiKey  string
	baseID  string
	table   string
	baseURL string
	http    *fasthttp.Client
}

// New creates a Client. An empty baseURL uses the public API.
func New(apiKey, baseID, table, baseURL string, hc *fasthttp.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if hc == nil {
		hc = &fasthttp.Client{ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
	}
	return &Client{apiKey: apiKey, baseID: baseID, table: table, baseURL: baseURL, http: hc}
}

// Configured reports whether the client can write.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseID != "" && c.table != ""
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateRecord appends one row with the given fields.
func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{"fields": fields, "typecast": true})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(c.table)))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(15 * time.Second)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("airtable: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		var e apiError
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error.Type != "" {
			return fmt.Errorf("airtable: status %d: %s: %s", code, e.Error.Type, e.Error.Message)
		}
		return fmt.Errorf("airtable: unexpected status %d", code)
	}
	return nil
}
