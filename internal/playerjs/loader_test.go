package playerjs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediastrand/ytcore/internal/httpx"
)

func TestVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/s/player/4fcd6e4a/player_ias.vflset/en_US/base.js", "4fcd6e4a"},
		{"https://www.youtube.com/s/player/ab_CD-12/player_ias.vflset/en_US/base.js", "ab_CD-12"},
		{"no-version-here", "no-version-here"},
	}
	for _, tt := range tests {
		if got := Version(tt.in); got != tt.want {
			t.Errorf("Version(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetAssetCoalescesFetches(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte(playerScriptFixture))
	}))
	defer srv.Close()

	loader := NewLoader(httpx.New(httpx.Config{}), nil, nil, zerolog.Nop(), LoaderConfig{BaseURL: srv.URL})

	const playerURL = "/s/player/v111/player_ias.vflset/en_US/base.js"
	var wg sync.WaitGroup
	assets := make([]*Asset, 8)
	for i := range assets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := loader.GetAsset(context.Background(), playerURL)
			if err != nil {
				t.Errorf("GetAsset: %v", err)
				return
			}
			assets[i] = a
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
	for _, a := range assets {
		if a == nil || a != assets[0] {
			t.Fatal("concurrent callers should share one asset")
		}
	}
	if assets[0].Version != "v111" {
		t.Fatalf("version = %q, want v111", assets[0].Version)
	}
	if assets[0].Decipherer == nil {
		t.Fatal("asset missing decipherer")
	}
}

func TestGetAssetFlightSurvivesInitiatorCancel(t *testing.T) {
	var fetches int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(playerScriptFixture))
	}))
	defer srv.Close()

	loader := NewLoader(httpx.New(httpx.Config{}), nil, nil, zerolog.Nop(), LoaderConfig{BaseURL: srv.URL})
	const playerURL = "/s/player/v444/player_ias.vflset/en_US/base.js"

	type result struct {
		asset *Asset
		err   error
	}
	results := make(chan result, 2)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		a, err := loader.GetAsset(ctx, playerURL)
		results <- result{a, err}
	}()
	<-started
	go func() {
		a, err := loader.GetAsset(context.Background(), playerURL)
		results <- result{a, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the flight

	// Canceling the initiator must not fail the coalesced waiter.
	cancel()
	close(release)

	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("GetAsset: %v", r.err)
		}
		if r.asset == nil || r.asset.Version != "v444" {
			t.Fatalf("asset = %+v", r.asset)
		}
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestGetAssetUsesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network fetch despite populated store")
		http.Error(w, "unexpected", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	store.Set("v222", playerScriptFixture)

	loader := NewLoader(httpx.New(httpx.Config{}), store, nil, zerolog.Nop(), LoaderConfig{BaseURL: srv.URL})
	asset, err := loader.GetAsset(context.Background(), "/s/player/v222/player_ias.vflset/en_US/base.js")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if asset.Script != playerScriptFixture {
		t.Fatal("asset script does not match stored script")
	}
}

func TestGetAssetFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewLoader(httpx.New(httpx.Config{}), nil, nil, zerolog.Nop(), LoaderConfig{BaseURL: srv.URL})
	if _, err := loader.GetAsset(context.Background(), "/s/player/v333/base.js"); err == nil {
		t.Fatal("expected fetch error")
	}
}
