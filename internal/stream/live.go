package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/grafov/m3u8"
	"github.com/rs/zerolog"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

// MaxLiveRefreshInterval caps how long a live session waits between
// playlist polls regardless of the advertised target duration.
const MaxLiveRefreshInterval = 20 * time.Second

const minLiveRefreshInterval = 5 * time.Second

// LiveConfig tunes a live HLS session.
type LiveConfig struct {
	// RefreshInterval overrides the poll cadence. Zero derives it from
	// the playlist target duration.
	RefreshInterval time.Duration
	Logger          zerolog.Logger
}

// segKey orders segments across discontinuities: compare the
// discontinuity sequence first, the media sequence second.
type segKey struct {
	discon uint64
	seq    uint64
}

func (k segKey) after(o segKey) bool {
	if k.discon != o.discon {
		return k.discon > o.discon
	}
	return k.seq > o.seq
}

type liveSegment struct {
	key segKey
	uri string
	enc *encryption
}

// LiveStream polls a live HLS media playlist and emits segments exactly
// once, in playlist order. Overlapping segments across polls are
// deduplicated by (discontinuity, sequence) key. After the playlist ends
// (EXT-X-ENDLIST) the remaining segments drain and Chunk returns io.EOF.
type LiveStream struct {
	client   *httpx.Client
	manifest *url.URL
	refresh  time.Duration
	log      zerolog.Logger

	pending []liveSegment
	last    segKey
	hasLast bool
	ended   bool

	nextPoll time.Time
	keys     *keyCache
	quit     chan struct{}
}

// NewLive opens a live session over the media playlist at manifestURL.
func NewLive(client *httpx.Client, manifestURL string, cfg LiveConfig) (*LiveStream, error) {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("manifest url: %w", err)
	}
	return &LiveStream{
		client:   client,
		manifest: u,
		refresh:  cfg.RefreshInterval,
		log:      cfg.Logger,
		keys:     newKeyCache(),
		quit:     make(chan struct{}),
	}, nil
}

func (s *LiveStream) Chunk(ctx context.Context) ([]byte, error) {
	select {
	case <-s.quit:
		return nil, ErrClosed
	default:
	}
	ctx, cancel := chunkContext(ctx, s.quit)
	defer cancel()

	for len(s.pending) == 0 {
		if s.ended {
			return nil, io.EOF
		}
		if err := s.waitForPoll(ctx); err != nil {
			return nil, err
		}
		if err := s.refreshPlaylist(ctx); err != nil {
			return nil, err
		}
	}

	seg := s.pending[0]
	s.pending = s.pending[1:]
	data, err := s.fetchSegment(ctx, seg)
	if err != nil {
		return nil, &SegmentError{Discon: seg.key.discon, Seq: seg.key.seq, Err: err}
	}
	return data, nil
}

func (s *LiveStream) waitForPoll(ctx context.Context) error {
	wait := time.Until(s.nextPoll)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refreshPlaylist fetches the playlist and enqueues every segment newer
// than the last one already seen.
func (s *LiveStream) refreshPlaylist(ctx context.Context) error {
	body, err := s.fetchManifest(ctx)
	if err != nil {
		return fmt.Errorf("refresh playlist: %w: %w", types.ErrTransfer, err)
	}
	playlist, kind, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return fmt.Errorf("decode playlist: %w: %w", types.ErrManifestParse, err)
	}
	media, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok || kind != m3u8.MEDIA {
		return fmt.Errorf("expected media playlist: %w", types.ErrManifestParse)
	}

	// EXT-X-DISCONTINUITY-SEQUENCE keeps keys comparable after a
	// discontinuity tag slides out of the live window.
	discon := media.DiscontinuitySeq
	var enc *encryption
	added := 0
	for i, seg := range media.Segments {
		if seg == nil {
			break
		}
		if seg.Discontinuity {
			discon++
		}
		if seg.Key != nil {
			enc, err = newEncryption(seg.Key, s.resolveURI)
			if err != nil {
				return err
			}
		}
		key := segKey{discon: discon, seq: media.SeqNo + uint64(i)}
		if s.hasLast && !key.after(s.last) {
			continue
		}
		uri, err := s.resolveURI(seg.URI)
		if err != nil {
			return fmt.Errorf("segment uri: %w: %w", types.ErrManifestParse, err)
		}
		s.pending = append(s.pending, liveSegment{key: key, uri: uri, enc: enc})
		s.last = key
		s.hasLast = true
		added++
	}
	if media.Closed {
		s.ended = true
	}
	s.scheduleNextPoll(media.TargetDuration)
	s.log.Debug().Int("new", added).Bool("ended", s.ended).Msg("playlist refreshed")
	return nil
}

func (s *LiveStream) scheduleNextPoll(targetDuration float64) {
	interval := s.refresh
	if interval <= 0 {
		interval = time.Duration(targetDuration * float64(time.Second))
		if interval < minLiveRefreshInterval {
			interval = minLiveRefreshInterval
		}
		if interval > MaxLiveRefreshInterval {
			interval = MaxLiveRefreshInterval
		}
	}
	s.nextPoll = time.Now().Add(interval)
}

func (s *LiveStream) fetchManifest(ctx context.Context) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	ra := &httpx.RetryAfterBackOff{BackOff: policy}

	var body []byte
	attempt := func() error {
		ctx, cancel := s.client.WithAttemptTimeout(ctx)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.manifest.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			serr := httpx.NewStatusError(resp)
			if !serr.Transient() {
				return backoff.Permanent(serr)
			}
			ra.Observe(serr)
			return serr
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(ra, DefaultMaxRetries), ctx))
	return body, err
}

// fetchSegment downloads and, when encrypted, decrypts one segment.
// A transfer failure is retried once before surfacing as recoverable.
func (s *LiveStream) fetchSegment(ctx context.Context, seg liveSegment) ([]byte, error) {
	var data []byte
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		data, err = s.fetchSegmentOnce(ctx, seg.uri)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn().Uint64("seq", seg.key.seq).Err(err).Msg("segment fetch failed")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTransfer, err)
	}
	if seg.enc == nil {
		return data, nil
	}
	return seg.enc.decrypt(ctx, s.client, s.keys, seg.key.seq, data)
}

func (s *LiveStream) fetchSegmentOnce(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpx.NewStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (s *LiveStream) resolveURI(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return s.manifest.ResolveReference(u).String(), nil
}

func (s *LiveStream) Close() error {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	return nil
}
