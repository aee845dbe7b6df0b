package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

// Bootstrap is everything the watch page yields in one fetch: the embedded
// player response plus the reference to the player script bundle.
type Bootstrap struct {
	VideoID   string
	Response  *PlayerResponse
	PlayerURL string
}

// Fetcher retrieves bootstrap data for a video identifier. It signals
// unavailable/private/age-restricted content through typed errors and never
// retries those.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Bootstrap, error)
}

// FetcherConfig contains externally tunable settings for watch page fetches.
type FetcherConfig struct {
	BaseURL string
}

type watchPageFetcher struct {
	client *httpx.Client
	config FetcherConfig
	log    zerolog.Logger
}

// NewWatchPageFetcher returns the default Fetcher backed by the watch page.
func NewWatchPageFetcher(client *httpx.Client, log zerolog.Logger, cfg FetcherConfig) Fetcher {
	return &watchPageFetcher{client: client, config: cfg, log: log}
}

var playerURLPattern = regexp.MustCompile(`(/s/player/[A-Za-z0-9_-]+/[A-Za-z0-9._/-]*/base\.js)`)

func (f *watchPageFetcher) Fetch(ctx context.Context, videoID string) (*Bootstrap, error) {
	body, err := f.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractEmbeddedJSON(body, "ytInitialPlayerResponse")
	if err != nil {
		return nil, fmt.Errorf("%w: video=%s: player response not embedded", types.ErrUnavailable, videoID)
	}
	var resp PlayerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse player response: %w", err)
	}

	if err := classifyPlayability(&resp); err != nil {
		return nil, err
	}

	playerURL := ""
	if m := playerURLPattern.FindSubmatch(body); len(m) > 1 {
		playerURL = string(m[1])
	} else {
		f.log.Warn().Str("video", videoID).Msg("player script reference not found on watch page")
	}

	return &Bootstrap{
		VideoID:   videoID,
		Response:  &resp,
		PlayerURL: playerURL,
	}, nil
}

func (f *watchPageFetcher) fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	ctx, cancel := f.client.WithAttemptTimeout(ctx)
	defer cancel()

	baseURL := f.config.BaseURL
	if baseURL == "" {
		baseURL = "https://www.youtube.com"
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/watch")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("v", videoID)
	q.Set("hl", "en")
	q.Set("bpctr", "9999999999")
	q.Set("has_verified", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpx.NewStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

// UnavailableError carries the playability verdict verbatim.
type UnavailableError struct {
	Status string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("unplayable: status=%s reason=%s", e.Status, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return types.ErrUnavailable }

// IsPrivate reports whether the verdict points at a private video.
func (e *UnavailableError) IsPrivate() bool {
	s := strings.ToUpper(e.Status + " " + e.Reason)
	return strings.Contains(s, "PRIVATE") || strings.Contains(s, "LOGIN")
}

// IsAgeRestricted reports whether the verdict is age gating.
func (e *UnavailableError) IsAgeRestricted() bool {
	return strings.Contains(strings.ToUpper(e.Status+" "+e.Reason), "AGE")
}

func classifyPlayability(resp *PlayerResponse) error {
	status := resp.PlayabilityStatus.Status
	switch status {
	case "", "OK":
		return nil
	case "LIVE_STREAM_OFFLINE":
		return &UnavailableError{Status: status, Reason: resp.PlayabilityStatus.Reason}
	default:
		// ERROR, LOGIN_REQUIRED, UNPLAYABLE (rental, region lock, not yet
		// broadcast) all surface verbatim. Not retried.
		return &UnavailableError{Status: status, Reason: resp.PlayabilityStatus.Reason}
	}
}
