package client

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mediastrand/ytcore/internal/playerjs"
)

// Config holds externally tunable client settings. The zero value is ready
// to use.
type Config struct {
	// HTTPClient replaces the built-in transport entirely. ProxyURL and
	// CookieJar are ignored when set.
	HTTPClient *http.Client
	ProxyURL   string
	CookieJar  http.CookieJar

	// RequestHeaders are applied to every outgoing request.
	RequestHeaders http.Header
	UserAgent      string

	// BaseURL overrides the site root, mainly for tests.
	BaseURL string

	// RequestTimeout bounds each individual HTTP attempt.
	RequestTimeout time.Duration

	// ChunkSize is the range size per progressive download chunk.
	// Defaults to 10 MiB.
	ChunkSize int64

	// MaxRetries bounds transient-error retries per chunk.
	MaxRetries int

	// LiveRefreshInterval overrides the live playlist poll cadence.
	// Zero derives it from the playlist target duration.
	LiveRefreshInterval time.Duration

	// RateLimit throttles progressive download throughput in bytes/sec.
	RateLimit *rate.Limiter

	// PlayerStore overrides where fetched player scripts are cached.
	PlayerStore playerjs.Store

	// Evaluator overrides the transform evaluator.
	Evaluator playerjs.Evaluator

	// DisableProbe skips the eager content-length probe during resolve.
	// Lengths are then probed lazily when a stream opens.
	DisableProbe bool

	// Logger receives structured diagnostics. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.Nop()
}
