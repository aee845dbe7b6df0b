package httpx

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	// DefaultUserAgent is sent on every request unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultAttemptTimeout = 30 * time.Second
)

// Config holds externally tunable settings for the shared HTTP collaborator.
// Zero values use defaults.
type Config struct {
	HTTPClient     *http.Client
	ProxyURL       string
	CookieJar      http.CookieJar
	UserAgent      string
	Headers        http.Header
	AttemptTimeout time.Duration
}

// Client wraps http.Client with per-attempt timeouts, default headers and
// transparent gzip/brotli body decoding. Compression is negotiated explicitly
// so ciphered URLs survive untouched in the raw body.
type Client struct {
	httpClient     *http.Client
	userAgent      string
	headers        http.Header
	attemptTimeout time.Duration
}

var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	ForceAttemptHTTP2:     true,
	DisableCompression:    true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		tr := defaultTransport.Clone()
		if cfg.ProxyURL != "" {
			if parsed, err := url.Parse(cfg.ProxyURL); err == nil && parsed.Scheme != "" && parsed.Host != "" {
				tr.Proxy = http.ProxyURL(parsed)
			}
		}
		httpClient = &http.Client{Transport: tr}
	}
	if cfg.CookieJar != nil {
		httpClient.Jar = cfg.CookieJar
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &Client{
		httpClient:     httpClient,
		userAgent:      ua,
		headers:        cloneHeader(cfg.Headers),
		attemptTimeout: attemptTimeout,
	}
}

// WithAttemptTimeout bounds ctx by the per-attempt deadline. Timeouts apply
// per attempt, never per whole download; callers streaming large bodies skip
// this and rely on the transport's header timeout instead.
func (c *Client) WithAttemptTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.attemptTimeout)
}

// ApplyHeaders stamps the configured defaults onto req without clobbering
// headers the caller already set.
func (c *Client) ApplyHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	for k, vals := range c.headers {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
}

// Do sends req with default headers applied and the body decoded according
// to Content-Encoding.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.ApplyHeaders(req)
	if req.Header.Get("Accept-Encoding") == "" && req.Header.Get("Range") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func decodeBody(resp *http.Response) error {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("gzip body: %w", err)
		}
		resp.Body = &decodedBody{Reader: gz, closer: resp.Body}
		resp.Header.Del("Content-Encoding")
	case "br":
		resp.Body = &decodedBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
		resp.Header.Del("Content-Encoding")
	}
	return nil
}

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b *decodedBody) Close() error {
	return b.closer.Close()
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	out := make(http.Header, len(h))
	for k, vals := range h {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[k] = cp
	}
	return out
}
