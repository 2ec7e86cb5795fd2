package yt

import (
	"strings"

	"kinesis/internal/engine"
)

// Video is the unifying projection over the two renderer shapes a video entry
// arrives in (search-result renderer, playlist-item renderer). Every field
// except ID is independently optional and degrades to "".
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	PublishedAt string `json:"publishedAt"`
	ViewCount   string `json:"viewCount"`
	Author      string `json:"author"`
}

// VideoFromRenderer projects one renderer sub-tree into a Video. ok is false
// when the sub-tree lacks a video identifier; malformed or partial input never
// fails, it only degrades fields.
func VideoFromRenderer(r engine.Node) (Video, bool) {
	id := r.Key("videoId").Str()
	if id == "" {
		return Video{}, false
	}

	v := Video{ID: id}
	v.Title = r.At("title", "runs", 0, "text").Str()

	// largest thumbnail is listed last
	if thumbs := r.At("thumbnail", "thumbnails").Arr(); len(thumbs) > 0 {
		v.Thumbnail = thumbs[len(thumbs)-1].Key("url").Str()
	}

	v.PublishedAt = r.At("publishedTimeText", "simpleText").Str()

	// view count is a plain string or, on some renderers, a sequence of runs
	v.ViewCount = r.At("viewCountText", "simpleText").Str()
	if v.ViewCount == "" {
		var sb strings.Builder
		for _, run := range r.At("viewCountText", "runs").Arr() {
			sb.WriteString(run.Key("text").Str())
		}
		v.ViewCount = sb.String()
	}

	// search renderers carry ownerText, playlist renderers shortBylineText
	v.Author = r.At("ownerText", "runs", 0, "text").Str()
	if v.Author == "" {
		v.Author = r.At("shortBylineText", "runs", 0, "text").Str()
	}
	return v, true
}
