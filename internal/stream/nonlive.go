package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

// DefaultChunkSize is the range size requested per Chunk call.
const DefaultChunkSize = 10 * 1024 * 1024

// DefaultMaxRetries bounds transient-error retries per chunk.
const DefaultMaxRetries = 3

// NonLiveConfig tunes a progressive download.
type NonLiveConfig struct {
	ChunkSize  int64
	MaxRetries int
	Limiter    *rate.Limiter
	Logger     zerolog.Logger
}

// NonLiveStream fetches a progressive resource in sequential byte ranges.
// Each failed attempt resumes from the first byte not yet received, so
// retries never duplicate or drop data.
type NonLiveStream struct {
	client *httpx.Client
	url    string
	length int64

	chunkSize  int64
	maxRetries int
	limiter    *rate.Limiter
	log        zerolog.Logger

	pos  int64
	done bool
	quit chan struct{}
}

// NewNonLive opens a progressive stream over url. length is the total
// content length in bytes and must be known; the catalog builder probes
// it when the metadata omits it.
func NewNonLive(client *httpx.Client, url string, length int64, cfg NonLiveConfig) (*NonLiveStream, error) {
	if length <= 0 {
		return nil, fmt.Errorf("open %q: content length unknown: %w", url, types.ErrProbe)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &NonLiveStream{
		client:     client,
		url:        url,
		length:     length,
		chunkSize:  cfg.ChunkSize,
		maxRetries: cfg.MaxRetries,
		limiter:    cfg.Limiter,
		log:        cfg.Logger,
		quit:       make(chan struct{}),
	}, nil
}

func (s *NonLiveStream) Chunk(ctx context.Context) ([]byte, error) {
	select {
	case <-s.quit:
		return nil, ErrClosed
	default:
	}
	if s.done {
		return nil, io.EOF
	}
	ctx, cancel := chunkContext(ctx, s.quit)
	defer cancel()

	end := s.pos + s.chunkSize - 1
	if end > s.length-1 {
		end = s.length - 1
	}
	buf, err := s.fetchRange(ctx, s.pos, end)
	if err != nil {
		return nil, err
	}
	if s.limiter != nil {
		if err := s.limiter.WaitN(ctx, len(buf)); err != nil {
			return nil, err
		}
	}
	s.pos = end + 1
	if s.pos >= s.length {
		s.done = true
	}
	return buf, nil
}

// fetchRange downloads bytes [start,end]. Partial reads are kept across
// attempts: each retry narrows the range to what is still missing.
func (s *NonLiveStream) fetchRange(ctx context.Context, start, end int64) ([]byte, error) {
	buf := make([]byte, 0, end-start+1)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	ra := &httpx.RetryAfterBackOff{BackOff: policy}

	attempt := func() error {
		cur := start + int64(len(buf))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", cur, end))
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
			serr := httpx.NewStatusError(resp)
			if !serr.Transient() {
				return backoff.Permanent(serr)
			}
			ra.Observe(serr)
			return serr
		}
		if resp.StatusCode == http.StatusOK && cur != 0 {
			return backoff.Permanent(fmt.Errorf("server ignored range request at offset %d", cur))
		}
		chunk, err := io.ReadAll(resp.Body)
		buf = append(buf, chunk...)
		if err != nil {
			return err
		}
		if got := start + int64(len(buf)); got <= end {
			return fmt.Errorf("short range body: have %d of %d bytes", len(buf), end-start+1)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Dur("backoff", wait).Int64("offset", start+int64(len(buf))).Msg("chunk fetch failed, retrying")
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(ra, uint64(s.maxRetries)), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("range %d-%d: %w: %w", start, end, types.ErrTransfer, err)
	}
	return buf[:end-start+1], nil
}

func (s *NonLiveStream) Close() error {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	return nil
}
