package yt

import (
	"regexp"
	"strings"
)

// Identifier normalization. Pure string transforms, no network: when no
// pattern matches the input is returned unchanged and the caller validates
// downstream.

var channelIDRe = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// ExtractVideoID pulls the video ID out of a watch URL, or returns the input
// unchanged when it carries no v= marker.
func ExtractVideoID(urlOrID string) string {
	return idAfterMarker(urlOrID, "v=")
}

// ExtractPlaylistID pulls the playlist ID out of a playlist URL, or returns
// the input unchanged when it carries no list= marker.
func ExtractPlaylistID(urlOrID string) string {
	return idAfterMarker(urlOrID, "list=")
}

func idAfterMarker(s, marker string) string {
	i := strings.Index(s, marker)
	if i < 0 {
		return s
	}
	id := s[i+len(marker):]
	if j := strings.IndexByte(id, '&'); j >= 0 {
		id = id[:j]
	}
	return id
}

// IsChannelID reports whether s is a bare canonical channel ID.
func IsChannelID(s string) bool {
	return channelIDRe.MatchString(s)
}

// DirectChannelID extracts a channel ID that is already present in the input,
// either as a bare ID or inside a /channel/ URL. ok is false when the input
// needs network resolution.
func DirectChannelID(urlOrHandle string) (id string, ok bool) {
	if IsChannelID(urlOrHandle) {
		return urlOrHandle, true
	}
	if i := strings.Index(urlOrHandle, "youtube.com/channel/"); i >= 0 {
		id := pathSegment(urlOrHandle[i+len("youtube.com/channel/"):])
		if id != "" {
			return id, true
		}
	}
	return "", false
}

// HandleFrom reduces a handle or URL fragment to the bare handle name:
// "@name", "youtube.com/@name", "youtube.com/c/name" and legacy
// "youtube.com/name" forms all yield "name". Unrecognized input is returned
// as-is and treated as a handle.
func HandleFrom(urlOrHandle string) string {
	s := urlOrHandle
	switch {
	case strings.Contains(s, "youtube.com/@"):
		s = pathSegment(s[strings.Index(s, "youtube.com/@")+len("youtube.com/@"):])
	case strings.HasPrefix(s, "@"):
		s = s[1:]
	case strings.Contains(s, "youtube.com/c/"):
		s = pathSegment(s[strings.Index(s, "youtube.com/c/")+len("youtube.com/c/"):])
	case strings.Contains(s, "youtube.com/"):
		s = pathSegment(s[strings.Index(s, "youtube.com/")+len("youtube.com/"):])
	}
	return s
}

// pathSegment cuts a URL remainder at the next path or query separator.
func pathSegment(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return s
}

// UploadsPlaylistID converts a channel ID to the ID of the implicit playlist
// enumerating the channel's published videos (UC prefix becomes UU). Inputs
// without the UC prefix pass through unchanged.
func UploadsPlaylistID(channelID string) string {
	if strings.HasPrefix(channelID, "UC") {
		return "UU" + channelID[2:]
	}
	return channelID
}
