package yt

import (
	"context"
	"fmt"
	"strings"

	"kinesis/internal/engine"
)

// Pagination traversal over a collection (playlist, or a channel through its
// uploads playlist). Pages are fetched strictly in dependency order: each
// continuation token is produced by one page and consumed by exactly the next
// request.

// Browser is the collection-listing slice of the innertube client, split out
// so traversal can be driven by a test double.
type Browser interface {
	Browse(ctx context.Context, browseID string) (engine.Node, error)
	Continue(ctx context.Context, token string) (engine.Node, error)
}

// ListPlaylist walks every page of a playlist, calling emit for each video in
// page order. The traversal moves INITIAL -> CONTINUING while pages yield a
// continuation token and stops when a page carries none, or yields zero items
// (exhaustion, not an error). A network failure surfaces as the returned
// error; records emitted before it remain valid partial output.
func ListPlaylist(ctx context.Context, b Browser, urlOrID string, emit func(Video)) error {
	playlistID := ExtractPlaylistID(urlOrID)
	browseID := playlistID
	if !strings.HasPrefix(browseID, "VL") {
		browseID = "VL" + browseID
	}

	token := ""
	for first := true; ; first = false {
		var (
			tree engine.Node
			err  error
		)
		if first {
			tree, err = b.Browse(ctx, browseID)
		} else {
			tree, err = b.Continue(ctx, token)
		}
		if err != nil {
			return fmt.Errorf("list playlist %s: %w", playlistID, err)
		}

		var items []engine.Node
		if first {
			items = initialPlaylistItems(tree)
		} else {
			items = continuationItems(tree)
		}
		if len(items) == 0 {
			return nil
		}

		token = ""
		for _, item := range items {
			if v, ok := VideoFromRenderer(item.Key("playlistVideoRenderer")); ok {
				emit(v)
			}
			if t := item.At("continuationItemRenderer", "continuationEndpoint",
				"continuationCommand", "token").Str(); t != "" {
				token = t
			}
		}
		if token == "" {
			return nil
		}
	}
}

// ListChannel resolves a channel reference, substitutes its uploads playlist
// ID and delegates to ListPlaylist.
func ListChannel(ctx context.Context, b Browser, r *Resolver, urlOrHandle string, emit func(Video)) error {
	channelID, err := r.Resolve(ctx, urlOrHandle)
	if err != nil {
		return err
	}
	return ListPlaylist(ctx, b, UploadsPlaylistID(channelID), emit)
}

// initialPlaylistItems digs out the item list of a first-page response.
func initialPlaylistItems(tree engine.Node) []engine.Node {
	return tree.At("contents", "twoColumnBrowseResultsRenderer",
		"tabs", 0, "tabRenderer", "content",
		"sectionListRenderer", "contents", 0,
		"itemSectionRenderer", "contents", 0,
		"playlistVideoListRenderer", "contents").Arr()
}

// continuationItems digs out the item list of a continuation-page response,
// which nests completely differently from the first page.
func continuationItems(tree engine.Node) []engine.Node {
	return tree.At("onResponseReceivedActions", 0,
		"appendContinuationItemsAction", "continuationItems").Arr()
}
