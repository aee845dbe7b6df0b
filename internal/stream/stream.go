package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Stream is the pull-based chunk source. Each Chunk call yields the next
// bytes in order, io.EOF at end of stream, or a *SegmentError for a
// recoverable per-segment failure on live feeds. Streams are single-consumer.
type Stream interface {
	Chunk(ctx context.Context) ([]byte, error)
	Close() error
}

// ErrClosed is returned from Chunk after Close.
var ErrClosed = errors.New("stream closed")

// SegmentError reports one failed live segment. The session stays healthy:
// subsequent Chunk calls keep delivering later segments.
type SegmentError struct {
	Discon uint64
	Seq    uint64
	Err    error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment d%010ds%010d: %v", e.Discon, e.Seq, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// Download pulls s until end-of-stream, writing every chunk to w.
// Recoverable segment errors are logged and skipped.
func Download(ctx context.Context, s Stream, w io.Writer, log zerolog.Logger) (int64, error) {
	var written int64
	for {
		chunk, err := s.Chunk(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return written, nil
			}
			var segErr *SegmentError
			if errors.As(err, &segErr) {
				log.Warn().Uint64("seq", segErr.Seq).Err(segErr.Err).Msg("skipping failed segment")
				continue
			}
			return written, err
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}

// chunkContext derives a context cancelled either by the caller or by Close.
func chunkContext(ctx context.Context, quit <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
