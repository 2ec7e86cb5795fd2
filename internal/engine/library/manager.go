package library

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"kinesis/internal/engine"
	"kinesis/internal/engine/yt"
)

// NoTranscriptText is stored when a video was checked and had no usable
// transcript. Non-empty on purpose: it distinguishes "known absent" from
// "not yet checked" (an absent row).
const NoTranscriptText = "No transcript available."

// MetadataFetcher supplies video metadata; satisfied by the WEB-profile
// innertube client.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, videoID string) (yt.Metadata, error)
}

// TranscriptFetcher supplies transcript lines; satisfied by the
// ANDROID-profile innertube client.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) ([]string, error)
}

// Manager coordinates cache lookups with remote fetches: at most one fetch
// per identifier in flight within the process, cache hits served without any
// network access.
type Manager struct {
	store       *Store
	meta        MetadataFetcher
	transcripts TranscriptFetcher
	workers     int
	flight      singleflight.Group
}

// NewManager wires a fetch-cache manager. workers bounds BulkSave
// concurrency and defaults to 5.
func NewManager(store *Store, meta MetadataFetcher, transcripts TranscriptFetcher, workers int) *Manager {
	if workers <= 0 {
		workers = 5
	}
	return &Manager{store: store, meta: meta, transcripts: transcripts, workers: workers}
}

// Result is the per-video outcome of a Get or BulkSave operation. A failed
// fetch is reported as a value with Error set, never as a propagated
// exception; callers check the shape.
type Result struct {
	VideoID    string `json:"video_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Length     int64  `json:"length,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Status     string `json:"status,omitempty"` // exists | fetched | saved
	Error      string `json:"error,omitempty"`
}

// Get normalizes the ID, serves a cached row when present, and otherwise
// fetches metadata and transcript and assembles a record, persisting it when
// persist is true. Concurrent calls for the same uncached ID share one fetch.
func (m *Manager) Get(ctx context.Context, urlOrID string, persist bool) Result {
	videoID := yt.ExtractVideoID(urlOrID)

	key := videoID
	if persist {
		key += "+persist"
	}
	v, _, _ := m.flight.Do(key, func() (any, error) {
		return m.get(ctx, videoID, persist), nil
	})
	return v.(Result)
}

func (m *Manager) get(ctx context.Context, videoID string, persist bool) Result {
	cached, err := m.store.Get(ctx, videoID)
	if err != nil {
		return Result{VideoID: videoID, Error: err.Error()}
	}
	if cached != nil {
		engine.IncrCacheHit()
		return Result{
			VideoID:    cached.VideoID,
			Title:      cached.Title,
			Author:     cached.Author,
			Length:     cached.LengthSeconds,
			Transcript: cached.Transcript,
			Status:     "exists",
		}
	}
	engine.IncrCacheMiss()

	meta, err := m.meta.FetchMetadata(ctx, videoID)
	if err != nil {
		return Result{VideoID: videoID, Error: err.Error()}
	}

	// a transcript failure does not fail the record; it is recorded as absent
	text := NoTranscriptText
	if lines, err := m.transcripts.FetchTranscript(ctx, videoID); err == nil && len(lines) > 0 {
		text = strings.Join(lines, "\n")
	}

	status := "fetched"
	if persist {
		err := m.store.Insert(ctx, CachedVideo{
			VideoID:       videoID,
			Title:         meta.Title,
			Author:        meta.Author,
			LengthSeconds: meta.LengthSeconds,
			Transcript:    text,
			ViewCount:     meta.ViewCount,
		})
		if err != nil {
			return Result{VideoID: videoID, Error: err.Error()}
		}
		status = "saved"
	}
	return Result{
		VideoID:    videoID,
		Title:      meta.Title,
		Author:     meta.Author,
		Length:     meta.LengthSeconds,
		Transcript: text,
		Status:     status,
	}
}

// Exists reports whether a video is cached. No network access.
func (m *Manager) Exists(ctx context.Context, urlOrID string) (bool, error) {
	return m.store.Exists(ctx, yt.ExtractVideoID(urlOrID))
}

// Delete removes a cached video; deleting an absent ID is not an error.
func (m *Manager) Delete(ctx context.Context, urlOrID string) error {
	return m.store.Delete(ctx, yt.ExtractVideoID(urlOrID))
}

// List returns all cached records, most recently inserted first.
func (m *Manager) List(ctx context.Context) ([]CachedVideo, error) {
	return m.store.List(ctx)
}

// BulkSave runs Get(id, persist=true) for each ID over a bounded worker pool
// and collects per-ID results. One ID's failure never aborts the others; no
// ordering is guaranteed between IDs.
func (m *Manager) BulkSave(ctx context.Context, urlOrIDs []string) []Result {
	jobs := make(chan string, len(urlOrIDs))
	for _, id := range urlOrIDs {
		jobs <- id
	}
	close(jobs)

	workers := m.workers
	if workers > len(urlOrIDs) {
		workers = len(urlOrIDs)
	}

	results := make(chan Result, len(urlOrIDs))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- m.Get(ctx, id, true)
			}
		}()
	}
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(urlOrIDs))
	for r := range results {
		out = append(out, r)
	}
	return out
}
