package embed

import (
	"context"
	"sync"

	"github.com/resumatch/resumatch/internal/cache"
)

// CachedProvider wraps a Provider with a content-addressed cache. A hit
// returns the stored vector without touching the underlying model. Concurrent
// misses on the same key are serialized so a race converges to one model
// call; no lock is held across the call itself.
type CachedProvider struct {
	provider Provider
	store    cache.Cache

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewCachedProvider wraps provider with store.
func NewCachedProvider(provider Provider, store cache.Cache) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		store:    store,
		inflight: make(map[string]chan struct{}),
	}
}

// Version passes through the underlying model version.
func (p *CachedProvider) Version() string {
	return p.provider.Version()
}

// Embed returns the cached vector for text, computing and storing it on miss.
// The mutex guards only the inflight map; store lookups run outside it so
// unrelated keys never serialize on each other's disk I/O.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(p.provider.Version(), NormalizeText(text))

	var done chan struct{}
	for {
		if vec, ok := p.lookup(key); ok {
			return vec, nil
		}

		p.mu.Lock()
		if ch, busy := p.inflight[key]; busy {
			p.mu.Unlock()
			// Another goroutine is computing this key. Wait, then
			// re-check the cache; if that computation failed we take
			// over and compute ourselves.
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done = make(chan struct{})
		p.inflight[key] = done
		p.mu.Unlock()
		break
	}

	defer func() {
		p.mu.Lock()
		delete(p.inflight, key)
		p.mu.Unlock()
		close(done)
	}()

	// A previous owner may have stored the vector between our miss and our
	// registration; the write happens before its inflight entry goes away.
	if vec, ok := p.lookup(key); ok {
		return vec, nil
	}

	vec, err := p.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	// Best effort: a failed write just means a recomputation next run.
	_ = p.store.Set(key, EncodeVector(vec))
	return vec, nil
}

// lookup reads and decodes one key, dropping a corrupt entry on the way.
func (p *CachedProvider) lookup(key string) ([]float32, bool) {
	data, found := p.store.Get(key)
	if !found {
		return nil, false
	}
	vec, err := DecodeVector(data)
	if err != nil {
		_ = p.store.Delete(key)
		return nil, false
	}
	return vec, true
}
