package yt

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"kinesis/internal/engine"
)

// Transcript resolution. The captions endpoint serves either a JSON or an XML
// body depending on track and request parameters, with no reliable way to
// predict which, hence the two-tier parse.

// ErrNoTranscript marks a video with no usable caption track or an empty
// transcript body.
var ErrNoTranscript = errors.New("no transcript available")

// CaptionTrack describes one selectable transcript stream.
type CaptionTrack struct {
	LanguageCode string
	BaseURL      string
}

// CaptionTracks lists the caption tracks of a player response tree.
func CaptionTracks(player engine.Node) []CaptionTrack {
	nodes := player.At("captions", "playerCaptionsTracklistRenderer", "captionTracks").Arr()
	tracks := make([]CaptionTrack, 0, len(nodes))
	for _, n := range nodes {
		tracks = append(tracks, CaptionTrack{
			LanguageCode: n.Key("languageCode").Str(),
			BaseURL:      n.Key("baseUrl").Str(),
		})
	}
	return tracks
}

// PickTrack selects the first track whose language code begins with "en",
// falling back to the first track in list order.
func PickTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return tracks[0], true
}

// Transcript resolves the ordered transcript line sequence for a played
// video's response tree. An empty caption-track list returns ErrNoTranscript
// without issuing any network request.
func Transcript(ctx context.Context, hc *http.Client, player engine.Node) ([]string, error) {
	track, ok := PickTrack(CaptionTracks(player))
	if !ok || track.BaseURL == "" {
		return nil, ErrNoTranscript
	}

	engine.IncrTranscript()
	body, err := fetchTrack(ctx, hc, track.BaseURL)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			slog.Warn("transcript: request timed out, possible rate limiting", slog.Any("err", err))
		} else {
			slog.Warn("transcript: request failed", slog.Any("err", err))
		}
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}

	if lines := parseJSONTranscript(body); len(lines) > 0 {
		return lines, nil
	}
	lines, err := parseXMLTranscript(body)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNoTranscript
	}
	return lines, nil
}

func fetchTrack(ctx context.Context, hc *http.Client, baseURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
}

// parseJSONTranscript handles the structured-text format. The json3 variant
// gets a fast path (events/segs/utf8 joined per event); anything else falls
// through to an ordered collection of every string under a "text" key. A body
// that is not JSON yields nil so the XML tier can run.
func parseJSONTranscript(body []byte) []string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	tree := engine.Parse(trimmed)
	if events := tree.Key("events").Arr(); len(events) > 0 {
		var lines []string
		for _, ev := range events {
			segs := ev.Key("segs").Arr()
			if len(segs) == 0 {
				continue
			}
			var sb strings.Builder
			for _, s := range segs {
				sb.WriteString(s.Key("utf8").Str())
			}
			if line := sb.String(); strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return lines
		}
	}

	return collectTextValues(trimmed, "text")
}

// collectTextValues walks a JSON document in order, collecting every string
// value stored under key. A token scan preserves appearance order, which a
// map-based decode would lose.
func collectTextValues(data []byte, key string) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	var lines []string

	var walkValue func(field string) error
	walkValue = func(field string) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				for dec.More() {
					keyTok, err := dec.Token()
					if err != nil {
						return err
					}
					name, _ := keyTok.(string)
					if err := walkValue(name); err != nil {
						return err
					}
				}
				_, err = dec.Token() // closing brace
				return err
			case '[':
				for dec.More() {
					if err := walkValue(""); err != nil {
						return err
					}
				}
				_, err = dec.Token() // closing bracket
				return err
			}
		case string:
			if field == key {
				lines = append(lines, v)
			}
		}
		return nil
	}

	if err := walkValue(""); err != nil {
		return nil
	}
	return lines
}

// Caption-markup (timedtext) XML shapes. The srv3 format nests word segments
// inside paragraphs; the legacy format is a flat list of text elements.
type timedTextDoc struct {
	Paragraphs []timedParagraph `xml:"body>p"`
	Lines      []timedLine      `xml:"text"`
}

type timedParagraph struct {
	Segments []timedSegment `xml:"s"`
}

type timedSegment struct {
	Text string `xml:",chardata"`
}

type timedLine struct {
	Text string `xml:",chardata"`
}

// parseXMLTranscript handles the caption-markup fallback: one output line per
// paragraph, child segments trimmed and joined with single spaces, paragraphs
// without text segments skipped.
func parseXMLTranscript(body []byte) ([]string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	var lines []string
	for _, p := range doc.Paragraphs {
		parts := make([]string, 0, len(p.Segments))
		for _, s := range p.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	for _, l := range doc.Lines {
		if t := engine.CleanHTML(l.Text); t != "" {
			lines = append(lines, t)
		}
	}
	return lines, nil
}

// FetchTranscript fetches the player tree for a video and resolves its
// transcript. Meant for the ANDROID-profile client, whose player response
// carries the caption track list.
func (c *Client) FetchTranscript(ctx context.Context, urlOrID string) ([]string, error) {
	tree, err := c.Player(ctx, ExtractVideoID(urlOrID))
	if err != nil {
		return nil, err
	}
	return Transcript(ctx, c.http, tree)
}
