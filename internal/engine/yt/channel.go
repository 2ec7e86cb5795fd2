package yt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kinesis/internal/engine"
)

// ErrChannelNotFound is returned when a handle cannot be mapped to a channel
// ID. Resolution is single best-effort: no retry on any failure.
var ErrChannelNotFound = errors.New("channel not found")

var embeddedChannelIDRe = regexp.MustCompile(`"channelId":"(UC[^"]+)"`)

// Resolver maps a handle or legacy channel URL to a canonical channel ID by
// scraping the profile page for the embedded identifier.
type Resolver struct {
	browser *engine.BrowserClient // nil falls back to the plain HTTP client
	http    *http.Client
	baseURL string
}

// NewResolver creates a channel resolver. browser may be nil.
func NewResolver(hc *http.Client, browser *engine.BrowserClient) *Resolver {
	return &Resolver{
		browser: browser,
		http:    hc,
		baseURL: "https://www.youtube.com",
	}
}

// NewResolverForTest creates a resolver pointed at a fake endpoint.
func NewResolverForTest(hc *http.Client, baseURL string) *Resolver {
	return &Resolver{http: hc, baseURL: baseURL}
}

// Resolve returns the canonical channel ID for a handle, channel URL, or bare
// ID. Bare IDs and /channel/ URLs short-circuit without network access.
func (r *Resolver) Resolve(ctx context.Context, urlOrHandle string) (string, error) {
	if id, ok := DirectChannelID(urlOrHandle); ok {
		return id, nil
	}

	handle := HandleFrom(urlOrHandle)
	if handle == "" {
		return "", ErrChannelNotFound
	}

	engine.IncrResolve()
	body, err := r.fetchProfilePage(ctx, handle)
	if err != nil {
		slog.Warn("resolve: profile page fetch failed",
			slog.String("handle", handle), slog.Any("err", err))
		return "", ErrChannelNotFound
	}

	if id := channelIDFromHTML(body); id != "" {
		return id, nil
	}
	return "", ErrChannelNotFound
}

func (r *Resolver) fetchProfilePage(ctx context.Context, handle string) ([]byte, error) {
	pageURL := r.baseURL + "/@" + handle

	if r.browser != nil {
		body, status, err := r.browser.Get(pageURL, engine.ChromeHeaders())
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("profile page: HTTP %d", status)
		}
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range engine.ChromeHeaders() {
		req.Header.Set(k, v)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile page: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
}

// channelIDFromHTML scans profile-page HTML for the channel ID: the embedded
// ytInitialData field first, then the og:url meta and canonical link tags
// which survive on pages where the inline data is stripped.
func channelIDFromHTML(body []byte) string {
	if m := embeddedChannelIDRe.FindSubmatch(body); len(m) >= 2 {
		return string(m[1])
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	if u, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		if id, ok := DirectChannelID(u); ok {
			return id
		}
	}
	if u, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if id, ok := DirectChannelID(u); ok {
			return id
		}
	}
	return ""
}
