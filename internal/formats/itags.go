package formats

// liveItagProfile describes a stream variant referenced by itag from a live
// HLS master playlist, which carries no descriptor record of its own.
type liveItagProfile struct {
	MimeType     string
	Bitrate      int
	AudioBitrate int
	Width        int
	Height       int
	FPS          int
	QualityLabel string
	HasAudio     bool
	HasVideo     bool
}

// liveItags is the subset of the host's itag table that shows up in live
// HLS master playlists (muxed TS variants plus the common audio ladder).
var liveItags = map[int]liveItagProfile{
	91:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 256, Height: 144, FPS: 30, Bitrate: 100_000, AudioBitrate: 48, QualityLabel: "144p", HasAudio: true, HasVideo: true},
	92:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 426, Height: 240, FPS: 30, Bitrate: 150_000, AudioBitrate: 48, QualityLabel: "240p", HasAudio: true, HasVideo: true},
	93:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 640, Height: 360, FPS: 30, Bitrate: 500_000, AudioBitrate: 128, QualityLabel: "360p", HasAudio: true, HasVideo: true},
	94:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 854, Height: 480, FPS: 30, Bitrate: 800_000, AudioBitrate: 128, QualityLabel: "480p", HasAudio: true, HasVideo: true},
	95:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 1280, Height: 720, FPS: 30, Bitrate: 1_500_000, AudioBitrate: 256, QualityLabel: "720p", HasAudio: true, HasVideo: true},
	96:  {MimeType: `video/ts; codecs="H.264, aac"`, Width: 1920, Height: 1080, FPS: 30, Bitrate: 2_500_000, AudioBitrate: 256, QualityLabel: "1080p", HasAudio: true, HasVideo: true},
	300: {MimeType: `video/ts; codecs="H.264, aac"`, Width: 1280, Height: 720, FPS: 60, Bitrate: 1_318_000, AudioBitrate: 48, QualityLabel: "720p60", HasAudio: true, HasVideo: true},
	301: {MimeType: `video/ts; codecs="H.264, aac"`, Width: 1920, Height: 1080, FPS: 60, Bitrate: 3_000_000, AudioBitrate: 128, QualityLabel: "1080p60", HasAudio: true, HasVideo: true},
}
