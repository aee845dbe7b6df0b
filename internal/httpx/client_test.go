package httpx

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestDoAppliesDefaultHeaders(t *testing.T) {
	var gotUA, gotLang, gotEnc string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotEnc = r.Header.Get("Accept-Encoding")
	}))
	defer srv.Close()

	c := New(Config{})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotUA != DefaultUserAgent {
		t.Errorf("user-agent = %q", gotUA)
	}
	if gotLang == "" {
		t.Error("accept-language not set")
	}
	if gotEnc != "gzip, br" {
		t.Errorf("accept-encoding = %q", gotEnc)
	}
}

func TestDoSkipsCompressionForRangeRequests(t *testing.T) {
	var gotEnc string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEnc = r.Header.Get("Accept-Encoding")
	}))
	defer srv.Close()

	c := New(Config{})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	req.Header.Set("Range", "bytes=0-0")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotEnc != "" {
		t.Errorf("accept-encoding = %q, want unset on range request", gotEnc)
	}
}

func TestDoCustomHeadersWin(t *testing.T) {
	var gotUA, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("X-Extra")
	}))
	defer srv.Close()

	headers := http.Header{}
	headers.Set("X-Extra", "configured")
	c := New(Config{UserAgent: "custom-agent/1.0", Headers: headers})

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotUA != "custom-agent/1.0" {
		t.Errorf("user-agent = %q", gotUA)
	}
	if gotExtra != "configured" {
		t.Errorf("x-extra = %q", gotExtra)
	}
}

func TestDoDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed payload"))
		gz.Close()
	}))
	defer srv.Close()

	c := New(Config{})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "compressed payload" {
		t.Fatalf("body = %q", body)
	}
	if resp.Header.Get("Content-Encoding") != "" {
		t.Error("content-encoding header should be cleared after decode")
	}
}

func TestDoDecodesBrotli(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte("brotli payload"))
		bw.Close()
	}))
	defer srv.Close()

	c := New(Config{})
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "brotli payload" {
		t.Fatalf("body = %q", body)
	}
}

func TestStatusErrorTransient(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		e := &StatusError{StatusCode: tt.code}
		if got := e.Transient(); got != tt.want {
			t.Errorf("Transient(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.raw); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
