package types

import (
	"mime"
	"strings"
)

// Format is the normalized public descriptor for one playable stream.
type Format struct {
	Itag             int
	URL              string
	MimeType         string
	Container        string
	Codecs           []string
	Quality          string
	QualityLabel     string
	Bitrate          int
	AudioBitrate     int
	Width            int
	Height           int
	FPS              int
	AudioSampleRate  int
	AudioChannels    int
	ApproxDurationMs int64

	// ContentLength is 0 until known, either from the descriptor itself or
	// from a range probe.
	ContentLength int64

	HasAudio bool
	HasVideo bool
	IsLive   bool
	IsHLS    bool

	// Ciphered marks a descriptor whose URL still requires deciphering.
	// A descriptor is either immediately fetchable or ciphered, never both.
	Ciphered bool

	// Unusable marks a descriptor whose deciphering failed. It is retained
	// in the catalog so callers can see why it shrank.
	Unusable       bool
	UnusableReason string
}

// Playable reports whether the descriptor can be handed to the stream engine.
func (f Format) Playable() bool {
	return !f.Unusable && f.URL != ""
}

// ParseMime splits a mimeType attribute like
// `video/mp4; codecs="avc1.640028, mp4a.40.2"` into container and codec list.
func ParseMime(mimeType string) (container string, codecs []string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", nil
	}
	if idx := strings.IndexByte(mediaType, '/'); idx >= 0 {
		container = mediaType[idx+1:]
	}
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	return container, codecs
}
