package formats

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/grafov/m3u8"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

var variantItagPattern = regexp.MustCompile(`/itag/(\d+)/`)

// liveFormats expands a live HLS master manifest into one descriptor per
// variant stream. Variants are immediately fetchable; no deciphering applies.
func (b *Builder) liveFormats(ctx context.Context, manifestURL string) ([]types.Format, error) {
	body, err := b.fetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	playlist, kind, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrManifestParse, err)
	}
	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok || kind != m3u8.MASTER {
		return nil, fmt.Errorf("%w: expected master playlist", types.ErrManifestParse)
	}

	var out []types.Format
	for _, variant := range master.Variants {
		if variant == nil || variant.URI == "" {
			continue
		}
		variantURL, err := absoluteURL(manifestURL, variant.URI)
		if err != nil {
			continue
		}

		f := types.Format{
			URL:      variantURL,
			Bitrate:  int(variant.Bandwidth),
			IsLive:   true,
			IsHLS:    true,
			HasAudio: true,
			HasVideo: true,
		}
		if m := variantItagPattern.FindStringSubmatch(variant.URI); len(m) > 1 {
			fmt.Sscanf(m[1], "%d", &f.Itag)
		}
		if profile, ok := liveItags[f.Itag]; ok {
			f.MimeType = profile.MimeType
			f.Container, f.Codecs = types.ParseMime(profile.MimeType)
			f.Width = profile.Width
			f.Height = profile.Height
			f.FPS = profile.FPS
			f.QualityLabel = profile.QualityLabel
			f.AudioBitrate = profile.AudioBitrate
			if f.Bitrate == 0 {
				f.Bitrate = profile.Bitrate
			}
		} else if variant.Resolution != "" {
			fmt.Sscanf(variant.Resolution, "%dx%d", &f.Width, &f.Height)
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *Builder) fetchManifest(ctx context.Context, manifestURL string) ([]byte, error) {
	ctx, cancel := b.client.WithAttemptTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpx.NewStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func absoluteURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
