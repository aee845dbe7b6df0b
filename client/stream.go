package client

import (
	"context"
	"fmt"
	"io"

	"github.com/mediastrand/ytcore/internal/formats"
	"github.com/mediastrand/ytcore/internal/stream"
	"github.com/mediastrand/ytcore/internal/types"
)

// Stream is the ordered chunk source for one format. See the stream
// package for the Chunk/Close contract.
type Stream = stream.Stream

// SegmentError is the recoverable per-segment failure emitted by live
// streams.
type SegmentError = stream.SegmentError

// Stream opens a byte stream over the chosen format. Live HLS formats get
// a polling playlist session with per-segment decryption; everything else
// gets a sequential ranged download with retry and resume.
func (c *Client) Stream(ctx context.Context, f Format) (Stream, error) {
	if f.Unusable {
		return nil, fmt.Errorf("format itag=%d unusable: %s: %w", f.Itag, f.UnusableReason, types.ErrDecipher)
	}
	if f.URL == "" {
		return nil, fmt.Errorf("format itag=%d has no url: %w", f.Itag, types.ErrSelectionNotFound)
	}

	if f.IsHLS {
		return stream.NewLive(c.http, f.URL, stream.LiveConfig{
			RefreshInterval: c.config.LiveRefreshInterval,
			Logger:          c.log,
		})
	}

	length := f.ContentLength
	if length <= 0 {
		probed, err := formats.ProbeContentLength(ctx, c.http, f.URL)
		if err != nil {
			return nil, err
		}
		length = probed
	}
	return stream.NewNonLive(c.http, f.URL, length, stream.NonLiveConfig{
		ChunkSize:  c.config.ChunkSize,
		MaxRetries: c.config.MaxRetries,
		Limiter:    c.config.RateLimit,
		Logger:     c.log,
	})
}

// Download streams the format into w until end of stream. Recoverable
// live segment failures are logged and skipped. Returns bytes written.
func (c *Client) Download(ctx context.Context, f Format, w io.Writer) (int64, error) {
	s, err := c.Stream(ctx, f)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return stream.Download(ctx, s, w, c.log)
}

// ResolveAndDownload resolves input, chooses a format per policy and
// downloads it into w.
func (c *Client) ResolveAndDownload(ctx context.Context, input string, policy Policy, w io.Writer) (int64, error) {
	video, err := c.Resolve(ctx, input)
	if err != nil {
		return 0, err
	}
	chosen, err := Choose(video.Formats, policy)
	if err != nil {
		return 0, err
	}
	return c.Download(ctx, chosen, w)
}
