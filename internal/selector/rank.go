package selector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mediastrand/ytcore/internal/types"
)

// Codec preference ladders, worst to best.
var (
	audioEncodingRanks = []string{"mp4a", "mp3", "vorbis", "aac", "opus", "flac"}
	videoEncodingRanks = []string{"mp4v", "avc1", "Sorenson H.283", "MPEG-4 Visual", "VP8", "VP9", "H.264"}
)

var leadingIntPattern = regexp.MustCompile(`\d+`)

// compositeLess ranks the full catalog: live HLS first, then muxed, then
// video-bearing, then known length, then label/bitrate ladders, then codec
// preference. Used for the Highest/Lowest tiers.
func compositeLess(a, b types.Format) bool {
	keys := []func(types.Format) int{
		func(f types.Format) int { return boolKey(f.IsHLS) },
		func(f types.Format) int { return boolKey(f.HasVideo && f.HasAudio) },
		func(f types.Format) int { return boolKey(f.HasVideo) },
		func(f types.Format) int { return boolKey(f.ContentLength > 0) },
		func(f types.Format) int { return qualityLabelValue(f.QualityLabel) },
		func(f types.Format) int { return f.Bitrate },
		func(f types.Format) int { return f.AudioBitrate },
		func(f types.Format) int { return videoEncodingRank(f) },
		func(f types.Format) int { return audioEncodingRank(f) },
	}
	return keyedLess(a, b, keys)
}

// videoLess ranks video-only descriptors by label, bitrate, codec.
func videoLess(a, b types.Format) bool {
	keys := []func(types.Format) int{
		func(f types.Format) int { return qualityLabelValue(f.QualityLabel) },
		func(f types.Format) int { return f.Bitrate },
		func(f types.Format) int { return videoEncodingRank(f) },
	}
	return keyedLess(a, b, keys)
}

// audioLess ranks audio-only descriptors by audio bitrate, then codec.
func audioLess(a, b types.Format) bool {
	keys := []func(types.Format) int{
		func(f types.Format) int { return f.AudioBitrate },
		func(f types.Format) int { return audioEncodingRank(f) },
	}
	return keyedLess(a, b, keys)
}

// keyedLess applies keys in order, higher values first.
func keyedLess(a, b types.Format, keys []func(types.Format) int) bool {
	for _, key := range keys {
		ka, kb := key(a), key(b)
		if ka != kb {
			return ka > kb
		}
	}
	return false
}

func boolKey(v bool) int {
	if v {
		return 1
	}
	return 0
}

// qualityLabelValue parses the numeric prefix of labels like "1080p60".
func qualityLabelValue(label string) int {
	m := leadingIntPattern.FindString(label)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

func videoEncodingRank(f types.Format) int {
	return encodingRank(f.Codecs, videoEncodingRanks)
}

func audioEncodingRank(f types.Format) int {
	return encodingRank(f.Codecs, audioEncodingRanks)
}

func encodingRank(codecs []string, ranks []string) int {
	joined := strings.Join(codecs, ", ")
	for i, enc := range ranks {
		if strings.Contains(joined, enc) {
			return i
		}
	}
	return -1
}
