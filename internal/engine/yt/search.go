package yt

import (
	"context"

	"kinesis/internal/engine"
)

// Search runs a query under the WEB profile and projects the video entries
// out of the result tree.
func Search(ctx context.Context, c *Client, query string) ([]Video, error) {
	tree, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return VideosFromSearch(tree), nil
}

// VideosFromSearch walks a search response tree. Sections and items that do
// not carry a videoRenderer (ads, shelves, continuation markers) are skipped.
func VideosFromSearch(tree engine.Node) []Video {
	sections := tree.At("contents", "twoColumnSearchResultsRenderer",
		"primaryContents", "sectionListRenderer", "contents").Arr()

	var out []Video
	for _, section := range sections {
		for _, item := range section.At("itemSectionRenderer", "contents").Arr() {
			if v, ok := VideoFromRenderer(item.Key("videoRenderer")); ok {
				out = append(out, v)
			}
		}
	}
	return out
}
