package yt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"kinesis/internal/engine"
)

// Innertube API client. Two request profiles exist because the backend serves
// different payloads per frontend: the WEB profile answers search, browse and
// metadata; the ANDROID profile's /player response carries the caption track
// list needed for transcripts.

const defaultBaseURL = "https://www.youtube.com/youtubei/v1"

// Profile identifies an innertube client context.
type Profile struct {
	Name       string
	Version    string
	UserAgent  string
	AndroidSDK int
}

var (
	ProfileWeb = Profile{
		Name:      "WEB",
		Version:   "2.20230301.09.00",
		UserAgent: engine.UserAgentChrome,
	}
	ProfileAndroid = Profile{
		Name:       "ANDROID",
		Version:    "19.05.36",
		UserAgent:  engine.UserAgentAndroid,
		AndroidSDK: 34,
	}
)

// Client issues innertube requests under one profile. The HTTP client is
// injected so tests can point it at a fake endpoint.
type Client struct {
	http    *http.Client
	profile Profile
	baseURL string
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit paces requests at rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates an innertube client for the given profile.
func NewClient(hc *http.Client, profile Profile, opts ...Option) *Client {
	c := &Client{
		http:    hc,
		profile: profile,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// clientContext builds the innertube context payload for the profile.
func (c *Client) clientContext() map[string]any {
	client := map[string]any{
		"clientName":       c.profile.Name,
		"clientVersion":    c.profile.Version,
		"hl":               "en",
		"gl":               "US",
		"utcOffsetMinutes": 0,
	}
	if c.profile.AndroidSDK > 0 {
		client["androidSdkVersion"] = c.profile.AndroidSDK
	}
	return map[string]any{"client": client}
}

// call POSTs to an innertube endpoint and returns the response tree.
// Single attempt, no retry: a failure is terminal for the current operation.
func (c *Client) call(ctx context.Context, endpoint string, body map[string]any) (engine.Node, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return engine.Node{}, err
		}
	}

	payload := map[string]any{"context": c.clientContext()}
	for k, v := range body {
		payload[k] = v
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return engine.Node{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return engine.Node{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", c.profile.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s [%s]: %w", c.profile.Name, endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return engine.Node{}, fmt.Errorf("innertube %s [%s]: HTTP %d: %s", c.profile.Name, endpoint, resp.StatusCode, snippet)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s [%s]: read: %w", c.profile.Name, endpoint, err)
	}
	return engine.Parse(data), nil
}

// Search runs a search query and returns the raw response tree.
func (c *Client) Search(ctx context.Context, query string) (engine.Node, error) {
	engine.IncrSearch()
	return c.call(ctx, "search", map[string]any{"query": query})
}

// Browse fetches the first page of a collection by browse ID.
func (c *Client) Browse(ctx context.Context, browseID string) (engine.Node, error) {
	engine.IncrBrowse()
	return c.call(ctx, "browse", map[string]any{"browseId": browseID})
}

// Continue fetches the next page of a collection. The token comes from the
// previous page and is valid for exactly one request.
func (c *Client) Continue(ctx context.Context, token string) (engine.Node, error) {
	engine.IncrBrowse()
	return c.call(ctx, "browse", map[string]any{"continuation": token})
}

// Player fetches the player response tree for a video.
func (c *Client) Player(ctx context.Context, videoID string) (engine.Node, error) {
	engine.IncrPlayer()
	return c.call(ctx, "player", map[string]any{"videoId": videoID})
}
