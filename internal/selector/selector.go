package selector

import (
	"sort"

	"github.com/mediastrand/ytcore/internal/types"
)

// Quality is the requested quality tier.
type Quality int

const (
	QualityHighest Quality = iota
	QualityLowest
	QualityHighestAudio
	QualityLowestAudio
	QualityHighestVideo
	QualityLowestVideo
	// QualityCustom ranks with Policy.Less and takes the best.
	QualityCustom
)

// Filter restricts which media kinds qualify.
type Filter int

const (
	// FilterAudioVideo keeps muxed formats carrying both streams.
	FilterAudioVideo Filter = iota
	FilterAudio
	FilterVideo
	FilterAny
	// FilterCustom delegates to Policy.Predicate.
	FilterCustom
)

// Policy is one selection request. Immutable, supplied per call.
type Policy struct {
	Quality   Quality
	Filter    Filter
	Predicate func(types.Format) bool
	Less      func(a, b types.Format) bool
}

// Choose maps a catalog and a policy to the single best descriptor.
// Pure function: the input slice is never mutated. Ties keep the descriptor
// earliest in original catalog order. Returns ErrSelectionNotFound rather
// than an arbitrary default when nothing qualifies.
func Choose(catalog []types.Format, policy Policy) (types.Format, error) {
	candidates := make([]types.Format, 0, len(catalog))
	for _, f := range catalog {
		if f.Unusable {
			continue
		}
		if !matchesFilter(f, policy) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return types.Format{}, types.ErrSelectionNotFound
	}

	// When a live HLS variant qualifies, non-HLS live entries are stale
	// descriptors of the same feed; drop them.
	if anyHLS(candidates) {
		kept := candidates[:0]
		for _, f := range candidates {
			if f.IsHLS || !f.IsLive {
				kept = append(kept, f)
			}
		}
		candidates = kept
	}

	switch policy.Quality {
	case QualityHighest:
		sortStable(candidates, compositeLess)
		return candidates[0], nil
	case QualityLowest:
		sortStable(candidates, compositeLess)
		return candidates[len(candidates)-1], nil
	case QualityHighestAudio, QualityLowestAudio:
		audio := retainAudio(candidates)
		if len(audio) == 0 {
			return types.Format{}, types.ErrSelectionNotFound
		}
		sortStable(audio, audioLess)
		if policy.Quality == QualityHighestAudio {
			return audio[0], nil
		}
		return audio[len(audio)-1], nil
	case QualityHighestVideo, QualityLowestVideo:
		video := retainVideo(candidates)
		if len(video) == 0 {
			return types.Format{}, types.ErrSelectionNotFound
		}
		sortStable(video, videoLess)
		if policy.Quality == QualityHighestVideo {
			return video[0], nil
		}
		return video[len(video)-1], nil
	case QualityCustom:
		if policy.Less == nil {
			return types.Format{}, types.ErrSelectionNotFound
		}
		sortStable(candidates, policy.Less)
		return candidates[0], nil
	default:
		return types.Format{}, types.ErrSelectionNotFound
	}
}

func matchesFilter(f types.Format, policy Policy) bool {
	switch policy.Filter {
	case FilterAudio:
		return (f.HasAudio && !f.HasVideo) || f.IsLive
	case FilterVideo:
		return (f.HasVideo && !f.HasAudio) || f.IsLive
	case FilterAny:
		return f.HasAudio || f.HasVideo
	case FilterCustom:
		if policy.Predicate == nil {
			return false
		}
		return policy.Predicate(f) || f.IsLive
	default:
		return (f.HasAudio && f.HasVideo) || f.IsLive
	}
}

func retainAudio(formats []types.Format) []types.Format {
	out := make([]types.Format, 0, len(formats))
	for _, f := range formats {
		if (f.HasAudio && !f.HasVideo) || f.IsLive {
			out = append(out, f)
		}
	}
	return out
}

func retainVideo(formats []types.Format) []types.Format {
	out := make([]types.Format, 0, len(formats))
	for _, f := range formats {
		if (f.HasVideo && !f.HasAudio) || f.IsLive {
			out = append(out, f)
		}
	}
	return out
}

func anyHLS(formats []types.Format) bool {
	for _, f := range formats {
		if f.IsHLS {
			return true
		}
	}
	return false
}

// sortStable orders best-first; stability preserves catalog order on ties.
func sortStable(formats []types.Format, less func(a, b types.Format) bool) {
	sort.SliceStable(formats, func(i, j int) bool {
		return less(formats[i], formats[j])
	})
}
