package playerjs

import (
	gocache "github.com/patrickmn/go-cache"
)

// Store holds fetched player scripts keyed by version token. It is
// append-only per key: a version's script never changes once written, so a
// new player version simply adds an entry. Injectable so tests can substitute
// a pre-populated or failing store.
type Store interface {
	Get(version string) (string, bool)
	Set(version string, script string)
}

type memoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore returns the default in-process store. Entries never expire;
// the cache lives as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *memoryStore) Get(version string) (string, bool) {
	v, ok := s.cache.Get(version)
	if !ok {
		return "", false
	}
	script, ok := v.(string)
	return script, ok
}

func (s *memoryStore) Set(version string, script string) {
	s.cache.Set(version, script, gocache.NoExpiration)
}
