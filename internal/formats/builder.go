package formats

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/pages"
	"github.com/mediastrand/ytcore/internal/types"
)

// Decipherer descrambles the signature and n parameters of a ciphered URL.
// Nil when the player asset could not be fetched; dependent descriptors are
// then marked undecipherable rather than dropped.
type Decipherer interface {
	DecipherSignature(s string) (string, error)
	DecipherN(n string) (string, error)
}

// BuilderConfig controls catalog construction.
type BuilderConfig struct {
	// DisableProbe skips the eager content-length probe for descriptors that
	// did not carry a length. The stream engine probes lazily instead.
	DisableProbe bool
}

// Builder turns raw page-embedded descriptors into the normalized catalog.
type Builder struct {
	client *httpx.Client
	config BuilderConfig
	log    zerolog.Logger
}

func NewBuilder(client *httpx.Client, log zerolog.Logger, cfg BuilderConfig) *Builder {
	return &Builder{client: client, config: cfg, log: log}
}

// Build produces the full descriptor list: progressive and adaptive formats
// with deciphered URLs and probed lengths, plus live HLS variants when the
// page references a live manifest. A descriptor whose deciphering failed is
// retained but marked unusable so callers can see why the catalog shrank.
func (b *Builder) Build(ctx context.Context, boot *pages.Bootstrap, dec Decipherer) []types.Format {
	sd := boot.Response.StreamingData
	isLive := boot.Response.VideoDetails.IsLiveContent

	out := make([]types.Format, 0, len(sd.Formats)+len(sd.AdaptiveFormats))
	for _, raw := range sd.Formats {
		out = append(out, b.buildOne(raw, dec, isLive))
	}
	for _, raw := range sd.AdaptiveFormats {
		out = append(out, b.buildOne(raw, dec, isLive))
	}

	if sd.HlsManifestURL != "" {
		live, err := b.liveFormats(ctx, sd.HlsManifestURL)
		if err != nil {
			b.log.Warn().Err(err).Msg("live manifest variants unavailable")
		} else {
			out = append(out, live...)
		}
	}

	if !b.config.DisableProbe {
		for i := range out {
			f := &out[i]
			if f.IsHLS || f.Unusable || f.URL == "" || f.ContentLength > 0 {
				continue
			}
			length, err := ProbeContentLength(ctx, b.client, f.URL)
			if err != nil {
				// Kept with unknown length rather than discarded.
				b.log.Warn().Int("itag", f.Itag).Err(err).Msg("content length probe failed")
				continue
			}
			f.ContentLength = length
		}
	}

	return out
}

func (b *Builder) buildOne(raw pages.RawFormat, dec Decipherer, isLive bool) types.Format {
	f := normalize(raw, isLive)

	switch {
	case raw.URL != "":
		f.URL = raw.URL
		f.Ciphered = false
	default:
		cipher := raw.SignatureCipher
		if cipher == "" {
			cipher = raw.Cipher
		}
		if cipher == "" {
			f.Unusable = true
			f.UnusableReason = "descriptor has neither url nor cipher"
			return f
		}
		f.Ciphered = true
		resolved, err := b.decipherURL(cipher, dec)
		if err != nil {
			b.log.Warn().Int("itag", f.Itag).Err(err).Msg("descriptor left undecipherable")
			f.Unusable = true
			f.UnusableReason = err.Error()
			return f
		}
		f.URL = resolved
		f.Ciphered = false
	}

	f.URL = b.rewriteNParam(f.URL, f.Itag, dec)
	return f
}

// decipherURL reconstructs the playable URL from a signatureCipher query
// string: descramble `s` and substitute it into the `sp` parameter.
func (b *Builder) decipherURL(cipher string, dec Decipherer) (string, error) {
	params, err := url.ParseQuery(cipher)
	if err != nil {
		return "", err
	}
	rawURL := params.Get("url")
	if rawURL == "" {
		return "", errMissingCipherURL
	}
	s := params.Get("s")
	if s == "" {
		return rawURL, nil
	}
	if dec == nil {
		return "", types.ErrExtraction
	}
	deciphered, err := dec.DecipherSignature(s)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	sp := params.Get("sp")
	if sp == "" {
		sp = "signature"
	}
	q := u.Query()
	q.Set(sp, deciphered)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// rewriteNParam descrambles the throttling parameter when present. Failure
// keeps the original value: the URL stays fetchable, only rate-limited.
func (b *Builder) rewriteNParam(rawURL string, itag int, dec Decipherer) string {
	if rawURL == "" || dec == nil {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	n := q.Get("n")
	if n == "" {
		return rawURL
	}
	deciphered, err := dec.DecipherN(n)
	if err != nil {
		b.log.Warn().Int("itag", itag).Err(err).Msg("n transform failed; keeping original value")
		return rawURL
	}
	q.Set("n", deciphered)
	u.RawQuery = q.Encode()
	return u.String()
}

func normalize(raw pages.RawFormat, isLive bool) types.Format {
	container, codecs := types.ParseMime(raw.MimeType)
	f := types.Format{
		Itag:          raw.Itag,
		MimeType:      raw.MimeType,
		Container:     container,
		Codecs:        codecs,
		Quality:       raw.Quality,
		QualityLabel:  raw.QualityLabel,
		Bitrate:       raw.Bitrate,
		Width:         raw.Width,
		Height:        raw.Height,
		FPS:           raw.FPS,
		AudioChannels: raw.AudioChannels,
		IsLive:        isLive,
	}
	if raw.Bitrate == 0 {
		f.Bitrate = raw.AverageBitrate
	}
	f.HasVideo = raw.QualityLabel != ""
	f.HasAudio = raw.AudioQuality != "" || raw.AudioSampleRate != ""
	if f.HasAudio {
		f.AudioBitrate = f.Bitrate / 1000
	}
	if raw.AudioSampleRate != "" {
		f.AudioSampleRate, _ = strconv.Atoi(raw.AudioSampleRate)
	}
	if raw.ApproxDurationMs != "" {
		f.ApproxDurationMs, _ = strconv.ParseInt(raw.ApproxDurationMs, 10, 64)
	}
	if raw.ContentLength != "" {
		f.ContentLength, _ = strconv.ParseInt(raw.ContentLength, 10, 64)
	}
	return f
}
