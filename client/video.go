package client

import (
	"strconv"
	"strings"

	"github.com/mediastrand/ytcore/internal/pages"
	"github.com/mediastrand/ytcore/internal/selector"
	"github.com/mediastrand/ytcore/internal/types"
)

// Format is one playable (or deliberately retained unusable) stream
// descriptor from the catalog.
type Format = types.Format

// Selection policy re-exports. Choose is pure: same catalog and policy
// always yield the same descriptor.
type (
	Policy  = selector.Policy
	Quality = selector.Quality
	Filter  = selector.Filter
)

const (
	QualityHighest      = selector.QualityHighest
	QualityLowest       = selector.QualityLowest
	QualityHighestAudio = selector.QualityHighestAudio
	QualityLowestAudio  = selector.QualityLowestAudio
	QualityHighestVideo = selector.QualityHighestVideo
	QualityLowestVideo  = selector.QualityLowestVideo
	QualityCustom       = selector.QualityCustom

	FilterAudioVideo = selector.FilterAudioVideo
	FilterAudio      = selector.FilterAudio
	FilterVideo      = selector.FilterVideo
	FilterAny        = selector.FilterAny
	FilterCustom     = selector.FilterCustom
)

// Choose picks one descriptor from the catalog according to policy.
func Choose(catalog []Format, policy Policy) (Format, error) {
	return selector.Choose(catalog, policy)
}

// Video is the resolved metadata plus the normalized format catalog.
type Video struct {
	ID          string
	Title       string
	Author      string
	Description string
	ChannelID   string
	Category    string
	PublishDate string
	UploadDate  string
	Keywords    []string
	DurationSec int64
	ViewCount   int64
	IsLive      bool
	IsPrivate   bool
	IsUnlisted  bool

	Formats []Format

	DashManifestURL string
	HLSManifestURL  string
}

func newVideo(boot *pages.Bootstrap, catalog []Format) *Video {
	details := boot.Response.VideoDetails
	micro := boot.Response.Microformat.PlayerMicroformatRenderer
	return &Video{
		ID:          details.VideoID,
		Title:       details.Title,
		Author:      details.Author,
		Description: details.ShortDescription,
		ChannelID:   firstNonEmpty(details.ChannelID, micro.ExternalChannelID),
		Category:    micro.Category,
		PublishDate: micro.PublishDate,
		UploadDate:  micro.UploadDate,
		Keywords:    append([]string(nil), details.Keywords...),
		DurationSec: parseInt64(firstNonEmpty(details.LengthSeconds, micro.LengthSeconds)),
		ViewCount:   parseInt64(firstNonEmpty(details.ViewCount, micro.ViewCount)),
		IsLive:      details.IsLiveContent,
		IsPrivate:   details.IsPrivate,
		IsUnlisted:  micro.IsUnlisted,

		Formats: catalog,

		DashManifestURL: boot.Response.StreamingData.DashManifestURL,
		HLSManifestURL:  boot.Response.StreamingData.HlsManifestURL,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

func parseInt64(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
