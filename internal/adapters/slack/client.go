// Package slack posts messages through the Slack Web API.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrNotConfigured is returned when no token or channel is set.
var ErrNotConfigured = errors.New("slack: token and channel are required")

const defaultBaseURL = "https://slack.com/api"

// Client implements ports.ChatNotifier with chat.postMessage.
type Client struct {
	token   string
	channel string
	baseURL string
	http    *fasthttp.Client
}

// New creates a Client. An empty baseURL uses the public API.
func New(token, channel, baseURL string, hc *fasthttp.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if hc == nil {
		hc = &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
	}
	return &Client{token: token, channel: channel, baseURL: baseURL, http: hc}
}

// Configured reports whether the client can post.
func (c *Client) Configured() bool {
	return c.token != "" && c.channel != ""
}

type postMessage struct {
	Channel     string `json:"channel"`
	Text        string `json:"text"`
	Username    string `json:"username,omitempty"`
	IconEmoji   string `json:"icon_emoji,omitempty"`
	UnfurlLinks bool   `json:"unfurl_links"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage posts text to the configured channel.
func (c *Client) PostMessage(ctx context.Context, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(postMessage{
		Channel:     c.channel,
		Text:        text,
		Username:    "aptscout",
		IconEmoji:   ":robot_face:",
		UnfurlLinks: true,
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/chat.postMessage")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("slack: unexpected status %d", resp.StatusCode())
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("slack: decode response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack: %s", out.Error)
	}
	return nil
}
