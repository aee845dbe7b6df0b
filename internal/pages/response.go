package pages

// PlayerResponse is the page-embedded player response structure.
type PlayerResponse struct {
	PlayabilityStatus PlayabilityStatus `json:"playabilityStatus"`
	StreamingData     StreamingData     `json:"streamingData"`
	VideoDetails      VideoDetails      `json:"videoDetails"`
	Microformat       Microformat       `json:"microformat"`
}

type PlayabilityStatus struct {
	Status          string `json:"status"`
	Reason          string `json:"reason"`
	PlayableInEmbed bool   `json:"playableInEmbed"`
}

func (p *PlayabilityStatus) IsOK() bool {
	return p.Status == "OK"
}

type StreamingData struct {
	ExpiresInSeconds string      `json:"expiresInSeconds"`
	Formats          []RawFormat `json:"formats"`
	AdaptiveFormats  []RawFormat `json:"adaptiveFormats"`
	DashManifestURL  string      `json:"dashManifestUrl"`
	HlsManifestURL   string      `json:"hlsManifestUrl"`
}

// RawFormat is one stream descriptor as embedded in the page, before
// normalization. Numeric fields arrive as strings in several places.
type RawFormat struct {
	Itag             int    `json:"itag"`
	URL              string `json:"url"`
	MimeType         string `json:"mimeType"`
	Bitrate          int    `json:"bitrate"`
	AverageBitrate   int    `json:"averageBitrate"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FPS              int    `json:"fps"`
	LastModified     string `json:"lastModified"`
	ContentLength    string `json:"contentLength"`
	Quality          string `json:"quality"`
	QualityLabel     string `json:"qualityLabel"`
	ProjectionType   string `json:"projectionType"`
	AudioQuality     string `json:"audioQuality"`
	ApproxDurationMs string `json:"approxDurationMs"`
	AudioSampleRate  string `json:"audioSampleRate"`
	AudioChannels    int    `json:"audioChannels"`
	SignatureCipher  string `json:"signatureCipher"`
	Cipher           string `json:"cipher"` // legacy field name
}

type VideoDetails struct {
	VideoID          string   `json:"videoId"`
	Title            string   `json:"title"`
	LengthSeconds    string   `json:"lengthSeconds"`
	Keywords         []string `json:"keywords"`
	ChannelID        string   `json:"channelId"`
	ShortDescription string   `json:"shortDescription"`
	ViewCount        string   `json:"viewCount"`
	Author           string   `json:"author"`
	IsPrivate        bool     `json:"isPrivate"`
	IsLiveContent    bool     `json:"isLiveContent"`
}

type Microformat struct {
	PlayerMicroformatRenderer PlayerMicroformatRenderer `json:"playerMicroformatRenderer"`
}

type PlayerMicroformatRenderer struct {
	LengthSeconds     string   `json:"lengthSeconds"`
	ExternalChannelID string   `json:"externalChannelId"`
	ViewCount         string   `json:"viewCount"`
	Category          string   `json:"category"`
	PublishDate       string   `json:"publishDate"`
	UploadDate        string   `json:"uploadDate"`
	IsUnlisted        bool     `json:"isUnlisted"`
	AvailableCountries []string `json:"availableCountries"`
}
