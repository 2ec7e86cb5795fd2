package yt

import (
	"context"
	"errors"

	"kinesis/internal/engine"
)

// Metadata is the videoDetails projection of a WEB player response.
type Metadata struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ViewCount     string `json:"viewCount"`
	LengthSeconds int64  `json:"lengthSeconds"`
	Thumbnail     string `json:"thumbnail"`
}

// ErrVideoNotFound marks a player response without video details.
var ErrVideoNotFound = errors.New("video not found")

// MetadataFromPlayer projects videoDetails out of a player response tree.
func MetadataFromPlayer(tree engine.Node) Metadata {
	d := tree.Key("videoDetails")
	m := Metadata{
		ID:            d.Key("videoId").Str(),
		Title:         d.Key("title").Str(),
		Author:        d.Key("author").Str(),
		ViewCount:     d.Key("viewCount").Str(),
		LengthSeconds: d.Key("lengthSeconds").Int64(),
	}
	if thumbs := d.At("thumbnail", "thumbnails").Arr(); len(thumbs) > 0 {
		m.Thumbnail = thumbs[len(thumbs)-1].Key("url").Str()
	}
	return m
}

// FetchMetadata fetches the player tree for a video under this client's
// profile and projects its metadata.
func (c *Client) FetchMetadata(ctx context.Context, urlOrID string) (Metadata, error) {
	tree, err := c.Player(ctx, ExtractVideoID(urlOrID))
	if err != nil {
		return Metadata{}, err
	}
	m := MetadataFromPlayer(tree)
	if m.ID == "" {
		return Metadata{}, ErrVideoNotFound
	}
	return m, nil
}
