package yt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testChannelID = "UCBJycsmduvYEL83R_U4JriQ"

func TestResolve_DirectInputsSkipNetwork(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
	}))
	defer srv.Close()
	r := NewResolverForTest(srv.Client(), srv.URL)

	for _, in := range []string{
		testChannelID,
		"https://www.youtube.com/channel/" + testChannelID,
	} {
		id, err := r.Resolve(context.Background(), in)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", in, err)
		}
		if id != testChannelID {
			t.Errorf("Resolve(%q) = %q", in, id)
		}
	}
	if n := atomic.LoadInt64(&requests); n != 0 {
		t.Errorf("made %d requests, want none for direct inputs", n)
	}
}

func TestResolve_HandleViaEmbeddedID(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprintf(w, `<html><body><script>var ytInitialData = {"header":{"channelId":"%s"}};</script></body></html>`, testChannelID)
	}))
	defer srv.Close()

	r := NewResolverForTest(srv.Client(), srv.URL)
	id, err := r.Resolve(context.Background(), "@mkbhd")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q", id)
	}
	if path != "/@mkbhd" {
		t.Errorf("requested %q, want /@mkbhd", path)
	}
}

func TestResolve_MetaTagFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<meta property="og:url" content="https://www.youtube.com/channel/%s">
		</head><body></body></html>`, testChannelID)
	}))
	defer srv.Close()

	r := NewResolverForTest(srv.Client(), srv.URL)
	id, err := r.Resolve(context.Background(), "https://www.youtube.com/@mkbhd/videos")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q", id)
	}
}

func TestResolve_CanonicalLinkFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<link rel="canonical" href="https://www.youtube.com/channel/%s">
		</head><body></body></html>`, testChannelID)
	}))
	defer srv.Close()

	r := NewResolverForTest(srv.Client(), srv.URL)
	id, err := r.Resolve(context.Background(), "@mkbhd")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id != testChannelID {
		t.Errorf("id = %q", id)
	}
}

func TestResolve_FailureIsSingleAttempt(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolverForTest(srv.Client(), srv.URL)
	_, err := r.Resolve(context.Background(), "@nosuchhandle")
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("err = %v, want ErrChannelNotFound", err)
	}
	if n := atomic.LoadInt64(&requests); n != 1 {
		t.Errorf("made %d requests, want exactly one (no retry)", n)
	}
}

func TestResolve_PageWithoutChannelID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>consent wall</body></html>`)
	}))
	defer srv.Close()

	r := NewResolverForTest(srv.Client(), srv.URL)
	if _, err := r.Resolve(context.Background(), "@mkbhd"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("err = %v, want ErrChannelNotFound", err)
	}
}
