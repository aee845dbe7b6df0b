package formats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

var errMissingCipherURL = errors.New("cipher query carries no url")

// ProbeContentLength fills in a missing content length with a minimal
// byte-range request, parsing the content-range total without downloading
// the body.
func ProbeContentLength(ctx context.Context, client *httpx.Client, rawURL string) (int64, error) {
	ctx, cancel := client.WithAttemptTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrProbe, err)
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrProbe, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		total, err := parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrProbe, err)
		}
		return total, nil
	case http.StatusOK:
		// Server ignored the range; the header still tells us the size.
		if resp.ContentLength > 0 {
			return resp.ContentLength, nil
		}
		return 0, fmt.Errorf("%w: no content length on full response", types.ErrProbe)
	default:
		return 0, fmt.Errorf("%w: status=%d", types.ErrProbe, resp.StatusCode)
	}
}

// parseContentRangeTotal extracts N from "bytes 0-0/N".
func parseContentRangeTotal(header string) (int64, error) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("malformed content-range %q", header)
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil || total <= 0 {
		return 0, fmt.Errorf("malformed content-range %q", header)
	}
	return total, nil
}
