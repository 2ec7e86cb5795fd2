package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests    atomic.Int64
	BrowseRequests    atomic.Int64
	PlayerRequests    atomic.Int64
	TranscriptFetches atomic.Int64
	ResolveRequests   atomic.Int64
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"search_requests":    metrics.SearchRequests.Load(),
		"browse_requests":    metrics.BrowseRequests.Load(),
		"player_requests":    metrics.PlayerRequests.Load(),
		"transcript_fetches": metrics.TranscriptFetches.Load(),
		"resolve_requests":   metrics.ResolveRequests.Load(),
		"cache_hits":         metrics.CacheHits.Load(),
		"cache_misses":       metrics.CacheMisses.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for the stats command.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"search_requests", "browse_requests", "player_requests",
		"transcript_fetches", "resolve_requests",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the yt sub-package.
func IncrSearch()     { metrics.SearchRequests.Add(1) }
func IncrBrowse()     { metrics.BrowseRequests.Add(1) }
func IncrPlayer()     { metrics.PlayerRequests.Add(1) }
func IncrTranscript() { metrics.TranscriptFetches.Add(1) }
func IncrResolve()    { metrics.ResolveRequests.Add(1) }

// Incrementors for the library sub-package.
func IncrCacheHit()  { metrics.CacheHits.Add(1) }
func IncrCacheMiss() { metrics.CacheMisses.Add(1) }
