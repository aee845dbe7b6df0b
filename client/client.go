package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediastrand/ytcore/internal/formats"
	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/pages"
	"github.com/mediastrand/ytcore/internal/playerjs"
)

// Client is the high-level stream resolver.
type Client struct {
	config  Config
	http    *httpx.Client
	pages   pages.Fetcher
	assets  *playerjs.Loader
	builder *formats.Builder
	log     zerolog.Logger
}

// New creates a client. The zero Config works out of the box.
func New(config Config) *Client {
	log := config.logger()
	httpClient := httpx.New(httpx.Config{
		HTTPClient:     config.HTTPClient,
		ProxyURL:       config.ProxyURL,
		CookieJar:      config.CookieJar,
		UserAgent:      config.UserAgent,
		Headers:        config.RequestHeaders,
		AttemptTimeout: config.RequestTimeout,
	})
	return &Client{
		config:  config,
		http:    httpClient,
		pages:   pages.NewWatchPageFetcher(httpClient, log, pages.FetcherConfig{BaseURL: config.BaseURL}),
		assets:  playerjs.NewLoader(httpClient, config.PlayerStore, config.Evaluator, log, playerjs.LoaderConfig{BaseURL: config.BaseURL}),
		builder: formats.NewBuilder(httpClient, log, formats.BuilderConfig{DisableProbe: config.DisableProbe}),
		log:     log,
	}
}

// Resolve fetches the watch page for a video ID or URL and returns its
// metadata with the normalized, deciphered format catalog. A player asset
// failure is not fatal: ciphered descriptors are then kept in the catalog,
// marked unusable with the reason recorded.
func (c *Client) Resolve(ctx context.Context, input string) (*Video, error) {
	start := time.Now()
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return nil, err
	}

	boot, err := c.pages.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	var dec formats.Decipherer
	if boot.PlayerURL != "" {
		asset, err := c.assets.GetAsset(ctx, boot.PlayerURL)
		if err != nil {
			c.log.Warn().Str("video", videoID).Err(err).Msg("player asset unavailable, ciphered formats will be unusable")
		} else {
			dec = asset.Decipherer
		}
	} else {
		c.log.Warn().Str("video", videoID).Msg("watch page carried no player script reference")
	}

	catalog := c.builder.Build(ctx, boot, dec)
	video := newVideo(boot, catalog)
	c.log.Info().
		Str("video", videoID).
		Int("formats", len(catalog)).
		Bool("live", video.IsLive).
		Dur("took", time.Since(start)).
		Msg("resolved")
	return video, nil
}
