package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DBPath         string
	RequestTimeout time.Duration
	BulkWorkers    int
	RateLimit      float64 // innertube requests per second, 0 = unlimited

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = channel resolution uses HTTPClient
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (yt, library).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.BulkWorkers <= 0 {
		c.BulkWorkers = 5
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	}
	cfg = c
	Cfg = &cfg
}
