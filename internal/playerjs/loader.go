package playerjs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mediastrand/ytcore/internal/httpx"
	"github.com/mediastrand/ytcore/internal/types"
)

// Asset is one cached player script bundle plus its derived transforms.
type Asset struct {
	Version    string
	Script     string
	Decipherer *Decipherer
}

// LoaderConfig contains externally tunable settings for player script fetches.
type LoaderConfig struct {
	BaseURL string
}

// Loader fetches and caches player assets by version. Concurrent misses for
// the same version coalesce into a single fetch; readers never block on
// writers beyond the initial fill.
type Loader struct {
	client *httpx.Client
	store  Store
	eval   Evaluator
	config LoaderConfig
	log    zerolog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	assets map[string]*Asset
}

var playerPathPattern = regexp.MustCompile(`/s/player/([A-Za-z0-9_-]+)/`)

// NewLoader builds a Loader. store and eval may be nil for defaults.
func NewLoader(client *httpx.Client, store Store, eval Evaluator, log zerolog.Logger, cfg LoaderConfig) *Loader {
	if store == nil {
		store = NewMemoryStore()
	}
	if eval == nil {
		eval = &GojaEvaluator{}
	}
	return &Loader{
		client: client,
		store:  store,
		eval:   eval,
		config: cfg,
		log:    log,
		assets: make(map[string]*Asset),
	}
}

// Version derives the version token from a player script URL or path.
func Version(playerURL string) string {
	if m := playerPathPattern.FindStringSubmatch(playerURL); len(m) > 1 {
		return m[1]
	}
	return playerURL
}

// GetAsset returns the asset for playerURL, fetching and deriving transforms
// on first use per process run.
func (l *Loader) GetAsset(ctx context.Context, playerURL string) (*Asset, error) {
	version := Version(playerURL)

	l.mu.RLock()
	asset, ok := l.assets[version]
	l.mu.RUnlock()
	if ok {
		return asset, nil
	}

	v, err, _ := l.group.Do(version, func() (interface{}, error) {
		// Re-check under the flight: another caller may have filled it.
		l.mu.RLock()
		cached, ok := l.assets[version]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}

		script, ok := l.store.Get(version)
		if !ok {
			// The flight serves every coalesced waiter, so it must not
			// inherit the initiating caller's cancellation. The attempt
			// timeout still bounds the fetch.
			fetched, err := l.fetchScript(context.WithoutCancel(ctx), playerURL)
			if err != nil {
				return nil, fmt.Errorf("%w: version=%s: %v", types.ErrAssetFetch, version, err)
			}
			script = fetched
			l.store.Set(version, script)
		}

		built := &Asset{
			Version:    version,
			Script:     script,
			Decipherer: NewDecipherer(script, l.eval),
		}
		if err := built.Decipherer.SignatureErr(); err != nil {
			l.log.Warn().Str("player", version).Err(err).Msg("signature transform extraction failed")
		}
		if err := built.Decipherer.NParamErr(); err != nil {
			l.log.Warn().Str("player", version).Err(err).Msg("n transform extraction failed")
		}

		l.mu.Lock()
		l.assets[version] = built
		l.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Asset), nil
}

func (l *Loader) fetchScript(ctx context.Context, playerURL string) (string, error) {
	ctx, cancel := l.client.WithAttemptTimeout(ctx)
	defer cancel()

	fetchURL := playerURL
	if !strings.HasPrefix(fetchURL, "http://") && !strings.HasPrefix(fetchURL, "https://") {
		baseURL := l.config.BaseURL
		if baseURL == "" {
			baseURL = "https://www.youtube.com"
		}
		fetchURL = strings.TrimRight(baseURL, "/") + playerURL
	}
	if _, err := url.Parse(fetchURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpx.NewStatusError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
