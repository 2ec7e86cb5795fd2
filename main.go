// kinesis — fetch YouTube metadata, transcripts, search results and
// playlist/channel listings through the internal web API, with a local
// SQLite library of saved videos.
//
// Listing commands stream one result per line; --json switches every surface
// to machine-readable output.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"flag"

	"github.com/spf13/viper"

	"kinesis/internal/engine"
	"kinesis/internal/engine/library"
	"kinesis/internal/engine/yt"
)

var version = "dev"

const usageText = `kinesis %s — fetch YouTube transcripts (official + auto-generated) without an API key.

Usage: kinesis [flags] <command> [args]

Commands:
  search <query>          Search videos
  playlist <id|url>       List all videos from a playlist
  channel <ref>           List all videos from a channel (handle, URL, or ID)
  transcript <id|url>     Print the transcript for a video
  info <id|url>           Print basic video metadata
  resolve <ref>           Resolve a handle to a channel ID

  init                    Initialize the library database
  get <id|url>            Fetch a video (served from the library when saved)
  peek <id|url>           Fetch a video without saving it
  list                    List saved videos, most recent first
  delete <id>             Delete a saved video
  check <id>              Check whether a video is saved
  bulk-save <id> [...]    Save multiple videos in parallel
  stats                   Library size and operation counters

Flags:
  --json        machine-readable output (one JSON object per line for listings)
  --db <path>   library database path (default from KINESIS_DB)
`

func main() {
	cfg := loadConfig()
	engine.Init(cfg.engine)

	jsonOut := flag.Bool("json", false, "machine-readable output")
	dbPath := flag.String("db", cfg.engine.DBPath, "library database path")
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usageText, version) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(0)
	}
	cmd, rest := args[0], args[1:]

	web := yt.NewClient(engine.Cfg.HTTPClient, yt.ProfileWeb, yt.WithRateLimit(engine.Cfg.RateLimit))
	android := yt.NewClient(engine.Cfg.HTTPClient, yt.ProfileAndroid, yt.WithRateLimit(engine.Cfg.RateLimit))
	resolver := yt.NewResolver(engine.Cfg.HTTPClient, engine.Cfg.BrowserClient)
	store := library.NewStore(*dbPath)
	mgr := library.NewManager(store, web, android, engine.Cfg.BulkWorkers)

	ctx := context.Background()

	switch cmd {
	case "search":
		cmdSearch(ctx, web, one(rest, "search <query>"), *jsonOut)
	case "playlist":
		cmdPlaylist(ctx, web, one(rest, "playlist <id|url>"), *jsonOut)
	case "channel":
		cmdChannel(ctx, web, resolver, one(rest, "channel <ref>"), *jsonOut)
	case "transcript":
		cmdTranscript(ctx, android, one(rest, "transcript <id|url>"))
	case "info":
		cmdInfo(ctx, web, one(rest, "info <id|url>"))
	case "resolve":
		cmdResolve(ctx, resolver, one(rest, "resolve <ref>"))
	case "init":
		if err := store.Init(ctx); err != nil {
			fatal("Error: " + err.Error())
		}
		fmt.Println("Database initialized.")
	case "get":
		printJSON(mgr.Get(ctx, one(rest, "get <id|url>"), true))
	case "peek":
		printJSON(mgr.Get(ctx, one(rest, "peek <id|url>"), false))
	case "list":
		cmdList(ctx, mgr, *jsonOut)
	case "delete":
		id := yt.ExtractVideoID(one(rest, "delete <id>"))
		if err := mgr.Delete(ctx, id); err != nil {
			fatal("Error: " + err.Error())
		}
		printJSON(map[string]string{"status": "deleted", "video_id": id})
	case "check":
		exists, err := mgr.Exists(ctx, one(rest, "check <id>"))
		if err != nil {
			fatal("Error: " + err.Error())
		}
		printJSON(map[string]bool{"exists": exists})
	case "bulk-save":
		if len(rest) == 0 {
			fatal("Usage: kinesis bulk-save <id> [...]")
		}
		printJSON(mgr.BulkSave(ctx, rest))
	case "stats":
		cmdStats(ctx, store, *jsonOut)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func cmdSearch(ctx context.Context, web *yt.Client, query string, jsonOut bool) {
	videos, err := yt.Search(ctx, web, query)
	if err != nil {
		fatal("Error: " + err.Error())
	}
	if jsonOut {
		printJSON(videos)
		return
	}
	for _, v := range videos {
		fmt.Printf("%s | %s\n", v.ID, v.Title)
	}
}

func cmdPlaylist(ctx context.Context, web *yt.Client, ref string, jsonOut bool) {
	if err := yt.ListPlaylist(ctx, web, ref, emitVideo(jsonOut)); err != nil {
		fatal("Error: " + err.Error())
	}
}

func cmdChannel(ctx context.Context, web *yt.Client, r *yt.Resolver, ref string, jsonOut bool) {
	if err := yt.ListChannel(ctx, web, r, ref, emitVideo(jsonOut)); err != nil {
		if err == yt.ErrChannelNotFound {
			fatal("Could not resolve channel ID. Provide a valid channel URL, handle (@username), or channel ID.")
		}
		fatal("Error: " + err.Error())
	}
}

// emitVideo prints one listing entry, streamed as it is discovered.
func emitVideo(jsonOut bool) func(yt.Video) {
	enc := json.NewEncoder(os.Stdout)
	return func(v yt.Video) {
		if jsonOut {
			_ = enc.Encode(v)
			return
		}
		fmt.Printf("%s | %s\n", v.ID, v.Title)
	}
}

func cmdTranscript(ctx context.Context, android *yt.Client, ref string) {
	lines, err := android.FetchTranscript(ctx, ref)
	if err != nil || len(lines) == 0 {
		if err != nil {
			slog.Debug("transcript unavailable", slog.Any("err", err))
		}
		fatal("No transcript found for this video.")
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func cmdInfo(ctx context.Context, web *yt.Client, ref string) {
	meta, err := web.FetchMetadata(ctx, ref)
	if err != nil {
		fatal("Error: " + err.Error())
	}
	printJSON(meta)
}

func cmdResolve(ctx context.Context, r *yt.Resolver, ref string) {
	id, err := r.Resolve(ctx, ref)
	if err != nil {
		fatal("Could not resolve channel.")
	}
	printJSON(map[string]string{"channelId": id, "channelName": ref})
}

func cmdList(ctx context.Context, mgr *library.Manager, jsonOut bool) {
	videos, err := mgr.List(ctx)
	if err != nil {
		fatal("Error: " + err.Error())
	}
	enc := json.NewEncoder(os.Stdout)
	for _, v := range videos {
		if jsonOut {
			_ = enc.Encode(v)
			continue
		}
		fmt.Printf("%s | %s | %s\n", v.VideoID, v.Title, v.Author)
	}
}

func cmdStats(ctx context.Context, store *library.Store, jsonOut bool) {
	count, err := store.Count(ctx)
	if err != nil {
		fatal("Error: " + err.Error())
	}
	if jsonOut {
		out := map[string]int64{"saved_videos": count}
		for k, v := range engine.GetMetrics() {
			out[k] = v
		}
		printJSON(out)
		return
	}
	fmt.Printf("saved_videos %d\n", count)
	fmt.Print(engine.FormatMetrics())
}

// one returns the single positional argument of a command or exits with its
// usage line.
func one(args []string, usage string) string {
	if len(args) != 1 {
		fatal("Usage: kinesis " + usage)
	}
	return args[0]
}

func printJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fatal("Error: " + err.Error())
	}
	fmt.Println(string(data))
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

type appConfig struct {
	engine engine.Config
}

// loadConfig reads settings from the environment (KINESIS_* variables) and an
// optional kinesis.yaml in the working directory.
func loadConfig() appConfig {
	v := viper.New()
	v.SetDefault("db", "kinesis_data.db")
	v.SetDefault("timeout", "30s")
	v.SetDefault("workers", 5)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix("KINESIS")
	v.AutomaticEnv()

	v.SetConfigName("kinesis")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "config: "+err.Error())
		}
	}

	setupLogging(v.GetString("log_level"))

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := engine.Config{
		DBPath:         v.GetString("db"),
		RequestTimeout: timeout,
		BulkWorkers:    v.GetInt("workers"),
		RateLimit:      v.GetFloat64("rate_limit"),
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := engine.NewBrowserClient(int(timeout.Seconds()))
	if err != nil {
		slog.Warn("browser client init failed, channel resolution uses plain HTTP", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
	}

	return appConfig{engine: c}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
