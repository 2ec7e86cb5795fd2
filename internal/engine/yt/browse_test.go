package yt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"kinesis/internal/engine"
)

// playlistPage builds a browse response. initial selects the first-page tree
// shape; token appends a continuation marker after the items.
func playlistPage(initial bool, token string, ids ...string) engine.Node {
	items := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		items = append(items, fmt.Sprintf(
			`{"playlistVideoRenderer":{"videoId":%q,"title":{"runs":[{"text":"title-%s"}]}}}`, id, id))
	}
	if token != "" {
		items = append(items, fmt.Sprintf(
			`{"continuationItemRenderer":{"continuationEndpoint":{"continuationCommand":{"token":%q}}}}`, token))
	}
	list := "[" + strings.Join(items, ",") + "]"

	if initial {
		return engine.Parse([]byte(`{"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"playlistVideoListRenderer":{"contents":` + list + `}}]}}]}}}}]}}}`))
	}
	return engine.Parse([]byte(`{"onResponseReceivedActions":[{"appendContinuationItemsAction":{"continuationItems":` + list + `}}]}`))
}

// fakeBrowser serves scripted pages: the initial page under key "" and
// continuation pages keyed by token.
type fakeBrowser struct {
	pages map[string]engine.Node
	errs  map[string]error
	calls []string
}

func (f *fakeBrowser) Browse(ctx context.Context, browseID string) (engine.Node, error) {
	f.calls = append(f.calls, "browse:"+browseID)
	return f.pages[""], f.errs[""]
}

func (f *fakeBrowser) Continue(ctx context.Context, token string) (engine.Node, error) {
	f.calls = append(f.calls, "continue:"+token)
	return f.pages[token], f.errs[token]
}

func collectIDs(emitted *[]string) func(Video) {
	return func(v Video) { *emitted = append(*emitted, v.ID) }
}

func TestListPlaylist_ThreePages(t *testing.T) {
	b := &fakeBrowser{pages: map[string]engine.Node{
		"":     playlistPage(true, "tok1", "vid-a", "vid-b"),
		"tok1": playlistPage(false, "tok2", "vid-c"),
		"tok2": playlistPage(false, "", "vid-d"),
	}}

	var got []string
	if err := ListPlaylist(context.Background(), b, "PLtest", collectIDs(&got)); err != nil {
		t.Fatalf("ListPlaylist error: %v", err)
	}

	want := []string{"vid-a", "vid-b", "vid-c", "vid-d"}
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emitted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// exactly one request per page, none after the terminal page
	if len(b.calls) != 3 {
		t.Errorf("calls = %v, want 3 requests", b.calls)
	}
	if b.calls[0] != "browse:VLPLtest" {
		t.Errorf("first call = %q, want VL-prefixed browse", b.calls[0])
	}
	if b.calls[1] != "continue:tok1" || b.calls[2] != "continue:tok2" {
		t.Errorf("continuation calls = %v", b.calls[1:])
	}
}

func TestListPlaylist_ZeroItemPageTerminates(t *testing.T) {
	b := &fakeBrowser{pages: map[string]engine.Node{
		"":     playlistPage(true, "tok1", "vid-a"),
		"tok1": playlistPage(false, ""),
	}}

	var got []string
	if err := ListPlaylist(context.Background(), b, "PLtest", collectIDs(&got)); err != nil {
		t.Fatalf("ListPlaylist error: %v", err)
	}
	if len(got) != 1 || got[0] != "vid-a" {
		t.Errorf("emitted %v, want [vid-a]", got)
	}
	if len(b.calls) != 2 {
		t.Errorf("calls = %v, want 2 requests", b.calls)
	}
}

func TestListPlaylist_URLAndPrefixNormalization(t *testing.T) {
	b := &fakeBrowser{pages: map[string]engine.Node{"": playlistPage(true, "")}}
	_ = ListPlaylist(context.Background(), b, "https://www.youtube.com/playlist?list=PLabc", func(Video) {})
	if b.calls[0] != "browse:VLPLabc" {
		t.Errorf("call = %q, want browse:VLPLabc", b.calls[0])
	}

	// an ID that already carries the browse prefix is not double-prefixed
	b2 := &fakeBrowser{pages: map[string]engine.Node{"": playlistPage(true, "")}}
	_ = ListPlaylist(context.Background(), b2, "VLPLabc", func(Video) {})
	if b2.calls[0] != "browse:VLPLabc" {
		t.Errorf("call = %q, want browse:VLPLabc", b2.calls[0])
	}
}

func TestListPlaylist_ErrorKeepsPartialOutput(t *testing.T) {
	b := &fakeBrowser{
		pages: map[string]engine.Node{"": playlistPage(true, "tok1", "vid-a", "vid-b")},
		errs:  map[string]error{"tok1": errors.New("connection reset")},
	}

	var got []string
	err := ListPlaylist(context.Background(), b, "PLtest", collectIDs(&got))
	if err == nil {
		t.Fatal("expected error from failed continuation")
	}
	if len(got) != 2 {
		t.Errorf("emitted %v, want the two pre-failure videos", got)
	}
}
