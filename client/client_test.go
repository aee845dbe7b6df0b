package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// playerScript is a miniature player bundle: a splice/reverse/swap helper
// driving the signature transform, plus an n transform that appends "z".
const playerScript = `var Mz={sw:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c},sp:function(a,b){a.splice(0,b)},rv:function(a){a.reverse()}};
Qx=function(a){a=a.split("");Mz.sp(a,1);Mz.rv(a,44);Mz.sw(a,2);return a.join("")};
var Nfx=function(a){var b=a.split("");b.push("z");return b.join("")};
g.k=function(c){a.set("alr","yes");c&&(c=Nfx(c))};`

const videoContentSize = 200

// fakeSite models the pieces of the host the client touches: the watch
// page, the player script and the media endpoint.
type fakeSite struct {
	srv     *httptest.Server
	content []byte
}

func newFakeSite(t *testing.T, playability string) *fakeSite {
	t.Helper()
	site := &fakeSite{content: bytes.Repeat([]byte("0123456789"), videoContentSize/10)}

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		base := site.srv.URL
		cipher := url.Values{
			"s":   {"abcdef"},
			"sp":  {"sig"},
			"url": {base + "/videoplayback?itag=140"},
		}.Encode()
		fmt.Fprintf(w, `<!DOCTYPE html><html><head>
<script src="/s/player/cafe0001/player_ias.vflset/en_US/base.js"></script>
</head><body><script>var ytInitialPlayerResponse = {
  "playabilityStatus": %s,
  "videoDetails": {"videoId": "dQw4w9WgXcQ", "title": "Fixture", "author": "Fixture Author", "lengthSeconds": "212", "viewCount": "1000"},
  "streamingData": {
    "formats": [
      {"itag": 18, "url": %q, "mimeType": "video/mp4; codecs=\"avc1.42001E, mp4a.40.2\"", "bitrate": 568000, "qualityLabel": "360p", "audioQuality": "AUDIO_QUALITY_LOW", "contentLength": "%d"}
    ],
    "adaptiveFormats": [
      {"itag": 140, "signatureCipher": %q, "mimeType": "audio/mp4; codecs=\"mp4a.40.2\"", "bitrate": 130000, "audioQuality": "AUDIO_QUALITY_MEDIUM"}
    ]
  }
};</script></body></html>`,
			playability,
			base+"/videoplayback?itag=18&n=abc",
			len(site.content),
			cipher)
	})
	mux.HandleFunc("/s/player/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, playerScript)
	})
	mux.HandleFunc("/videoplayback", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "v.mp4", time.Unix(1700000000, 0), bytes.NewReader(site.content))
	})

	site.srv = httptest.NewServer(mux)
	t.Cleanup(site.srv.Close)
	return site
}

func newTestClient(site *fakeSite) *Client {
	return New(Config{BaseURL: site.srv.URL})
}

func TestResolve(t *testing.T) {
	site := newFakeSite(t, `{"status":"OK"}`)
	c := newTestClient(site)

	video, err := c.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if video.Title != "Fixture" || video.Author != "Fixture Author" {
		t.Errorf("metadata: title=%q author=%q", video.Title, video.Author)
	}
	if video.DurationSec != 212 || video.ViewCount != 1000 {
		t.Errorf("duration=%d views=%d", video.DurationSec, video.ViewCount)
	}
	if len(video.Formats) != 2 {
		t.Fatalf("formats = %d, want 2", len(video.Formats))
	}

	muxedF := video.Formats[0]
	if muxedF.Unusable {
		t.Fatalf("muxed format unusable: %s", muxedF.UnusableReason)
	}
	u, err := url.Parse(muxedF.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if got := u.Query().Get("n"); got != "abcz" {
		t.Errorf("n = %q, want abcz (deciphered)", got)
	}

	audio := video.Formats[1]
	if audio.Unusable {
		t.Fatalf("audio format unusable: %s", audio.UnusableReason)
	}
	au, _ := url.Parse(audio.URL)
	// splice(0,1)+reverse+swap(2) over "abcdef".
	if got := au.Query().Get("sig"); got != "defcb" {
		t.Errorf("sig = %q, want defcb", got)
	}
	if audio.ContentLength != videoContentSize {
		t.Errorf("probed contentLength = %d, want %d", audio.ContentLength, videoContentSize)
	}
}

func TestResolveInvalidInput(t *testing.T) {
	c := New(Config{})
	_, err := c.Resolve(context.Background(), "not a video")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestResolveUnavailable(t *testing.T) {
	site := newFakeSite(t, `{"status":"LOGIN_REQUIRED","reason":"This video is private."}`)
	c := newTestClient(site)

	_, err := c.Resolve(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var uerr *UnavailableError
	if !errors.As(err, &uerr) {
		t.Fatalf("err = %T, want *UnavailableError", err)
	}
	if !uerr.IsPrivate() {
		t.Error("verdict should classify as private")
	}
}

func TestResolveBrokenPlayerAssetKeepsCatalog(t *testing.T) {
	site := newFakeSite(t, `{"status":"OK"}`)
	// Prefill the store with a script that has no extractable transforms.
	c := New(Config{BaseURL: site.srv.URL, PlayerStore: prefilledStore{script: "var nothing=1;"}})

	video, err := c.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(video.Formats) != 2 {
		t.Fatalf("formats = %d, want 2 (unusable kept)", len(video.Formats))
	}
	if video.Formats[0].Unusable {
		t.Error("complete-URL format should stay usable")
	}
	if !video.Formats[1].Unusable {
		t.Error("ciphered format should be marked unusable")
	}
}

// prefilledStore returns the same script for every version.
type prefilledStore struct{ script string }

func (s prefilledStore) Get(version string) (string, bool) { return s.script, true }
func (s prefilledStore) Set(version, script string)        {}

func TestDownloadEndToEnd(t *testing.T) {
	site := newFakeSite(t, `{"status":"OK"}`)
	c := New(Config{BaseURL: site.srv.URL, ChunkSize: 64})

	video, err := c.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	chosen, err := Choose(video.Formats, Policy{Quality: QualityHighest, Filter: FilterAudioVideo})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if chosen.Itag != 18 {
		t.Fatalf("chose itag=%d, want 18", chosen.Itag)
	}

	var out bytes.Buffer
	written, err := c.Download(context.Background(), chosen, &out)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if written != int64(len(site.content)) {
		t.Fatalf("written = %d, want %d", written, len(site.content))
	}
	if !bytes.Equal(out.Bytes(), site.content) {
		t.Fatal("downloaded bytes differ from source content")
	}
}

func TestResolveAndDownload(t *testing.T) {
	site := newFakeSite(t, `{"status":"OK"}`)
	c := New(Config{BaseURL: site.srv.URL, ChunkSize: 64})

	var out bytes.Buffer
	written, err := c.ResolveAndDownload(context.Background(),
		site.srv.URL+"/watch?v=dQw4w9WgXcQ", Policy{Quality: QualityHighest}, &out)
	if err != nil {
		t.Fatalf("ResolveAndDownload: %v", err)
	}
	if written != int64(len(site.content)) {
		t.Fatalf("written = %d, want %d", written, len(site.content))
	}
}

func TestStreamUnusableFormat(t *testing.T) {
	c := New(Config{})
	_, err := c.Stream(context.Background(), Format{Itag: 22, Unusable: true, UnusableReason: "cipher extraction failed"})
	if !errors.Is(err, ErrDecipher) {
		t.Fatalf("err = %v, want ErrDecipher", err)
	}
}

func TestStreamLazyProbe(t *testing.T) {
	site := newFakeSite(t, `{"status":"OK"}`)
	c := New(Config{BaseURL: site.srv.URL, ChunkSize: 64})

	// Unknown content length: the stream opens after a lazy probe.
	f := Format{Itag: 18, URL: site.srv.URL + "/videoplayback?itag=18"}
	s, err := c.Stream(context.Background(), f)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer s.Close()

	var out bytes.Buffer
	for {
		chunk, err := s.Chunk(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Chunk: %v", err)
		}
		out.Write(chunk)
	}
	if !bytes.Equal(out.Bytes(), site.content) {
		t.Fatal("streamed bytes differ from source content")
	}
}
