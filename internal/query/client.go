package query

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Entry is an opaque snapshot of one cache slot, used by the optimistic
// update layer to restore pre-mutation state verbatim.
type Entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Value returns the cached value held by the snapshot.
func (e Entry) Value() any {
	return e.value
}

// Client is the in-memory query cache. It deduplicates concurrent requests
// for the same key, serves cached data within the staleness window, retries
// transient failures with exponential backoff, and coordinates invalidation
// with background refresh for actively observed keys.
//
// Construct one Client at application start and pass it down explicitly;
// Close it on full logout.
type Client struct {
	opts    Options
	store   *otter.Cache[string, Entry]
	counter *stats.Counter

	group singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64

	mu       sync.Mutex
	index    map[string]Key
	fetchers map[string]func(context.Context) (any, error)
	inflight map[string]context.CancelFunc
	subs     map[string]int
}

// NewClient creates a query cache with the given policy.
func NewClient(opts Options) *Client {
	counter := stats.NewCounter()
	store := otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      opts.MaxEntries,
		StatsRecorder:    counter,
		ExpiryCalculator: otter.ExpiryAccessing[string, Entry](opts.GCTime),
	})

	return &Client{
		opts:     opts,
		store:    store,
		counter:  counter,
		index:    make(map[string]Key),
		fetchers: make(map[string]func(context.Context) (any, error)),
		inflight: make(map[string]context.CancelFunc),
		subs:     make(map[string]int),
	}
}

// Fetch returns the cached value for key when it is younger than the
// staleness window, otherwise loads it through fn. Concurrent fetches for
// the same key share a single in-flight call. The fetcher is retained so
// invalidation can refetch the key later.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error), opts ...FetchOption) (T, error) {
	options := c.opts
	for _, opt := range opts {
		opt(&options)
	}

	k := key.Canonical()
	c.register(k, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})

	if entry, ok := c.store.GetEntry(k); ok {
		if !entry.Value.stale && time.Since(entry.Value.fetchedAt) < options.StaleTime {
			if value, ok := entry.Value.value.(T); ok {
				c.hits.Add(1)
				recordFetch(ctx, "hit")
				return value, nil
			}
		}
	}

	c.misses.Add(1)
	recordFetch(ctx, "miss")
	value, err := c.load(ctx, k, options)
	if err != nil {
		recordFetch(ctx, "error")
		var zero T
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s holds %T, requested %T", k, value, zero)
	}
	return typed, nil
}

// Get reads the cache without triggering a load.
func Get[T any](c *Client, key Key) (T, bool) {
	entry, ok := c.store.GetEntry(key.Canonical())
	if !ok {
		var zero T
		return zero, false
	}

	value, ok := entry.Value.value.(T)
	return value, ok
}

// Set writes a value directly into the cache, marking it fresh. The
// optimistic update layer and prefetch results land here.
func Set[T any](c *Client, key Key, value T) {
	k := key.Canonical()

	c.mu.Lock()
	c.index[k] = key
	c.mu.Unlock()

	c.store.Set(k, Entry{value: value, fetchedAt: time.Now()})
}

// Snapshot captures the current entry for key, with its staleness metadata,
// so it can be restored exactly.
func (c *Client) Snapshot(key Key) (Entry, bool) {
	entry, ok := c.store.GetEntry(key.Canonical())
	if !ok {
		return Entry{}, false
	}
	return entry.Value, true
}

// Restore writes a snapshot back verbatim.
func (c *Client) Restore(key Key, snapshot Entry) {
	k := key.Canonical()

	c.mu.Lock()
	c.index[k] = key
	c.mu.Unlock()

	c.store.Set(k, snapshot)
}

// Delete evicts the exact key (not a prefix).
func (c *Client) Delete(key Key) {
	c.store.Invalidate(key.Canonical())
}

// Subscribe marks key as actively observed. Invalidation refetches observed
// keys in the background; unobserved entries simply go stale and age out.
// The returned function removes the subscription.
func (c *Client) Subscribe(key Key) func() {
	k := key.Canonical()

	c.mu.Lock()
	c.index[k] = key
	c.subs[k]++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.subs[k] <= 1 {
				delete(c.subs, k)
			} else {
				c.subs[k]--
			}
		})
	}
}

// Invalidate marks every entry under the given prefixes stale. Entries with
// active subscribers are refetched in the background; the call never blocks
// on the network. Callers needing post-invalidation freshness must Refetch
// explicitly.
func (c *Client) Invalidate(ctx context.Context, prefixes ...Key) {
	for _, k := range c.matching(prefixes) {
		canonical := k.Canonical()

		if entry, ok := c.store.GetEntry(canonical); ok {
			stale := entry.Value
			stale.stale = true
			c.store.Set(canonical, stale)
		}

		c.mu.Lock()
		observed := c.subs[canonical] > 0
		c.mu.Unlock()

		if observed {
			go c.backgroundRefetch(context.WithoutCancel(ctx), k)
		}
	}
}

// Refetch forces a load for key, bypassing the staleness window, and blocks
// until it completes.
func (c *Client) Refetch(ctx context.Context, key Key) error {
	options := c.opts
	options.StaleTime = 0
	_, err := c.load(ctx, key.Canonical(), options)
	return err
}

// Remove evicts every entry under the given prefixes outright, along with
// its registered fetcher. Used for logout and cleanup, not routine
// invalidation.
func (c *Client) Remove(prefixes ...Key) {
	for _, k := range c.matching(prefixes) {
		canonical := k.Canonical()
		c.store.Invalidate(canonical)

		c.mu.Lock()
		delete(c.index, canonical)
		delete(c.fetchers, canonical)
		c.mu.Unlock()
	}
}

// Clear evicts everything.
func (c *Client) Clear() {
	c.store.InvalidateAll()

	c.mu.Lock()
	c.index = make(map[string]Key)
	c.fetchers = make(map[string]func(context.Context) (any, error))
	c.mu.Unlock()
}

// CancelQueries cancels any in-flight fetch for key and forgets its shared
// call slot, so a slow response cannot overwrite a value written afterwards.
func (c *Client) CancelQueries(key Key) {
	k := key.Canonical()

	c.mu.Lock()
	cancel := c.inflight[k]
	delete(c.inflight, k)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.group.Forget(k)
}

// ActiveKeys returns the observed keys under prefix (all observed keys for
// a nil prefix).
func (c *Client) ActiveKeys(prefix Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for canonical, count := range c.subs {
		if count <= 0 {
			continue
		}
		key, ok := c.index[canonical]
		if !ok {
			continue
		}
		if prefix == nil || key.HasPrefix(prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats reports cumulative cache hits and misses seen by Fetch.
func (c *Client) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the entry store. The client must not be used afterwards.
func (c *Client) Close() {
	c.Clear()
}

func (c *Client) register(canonical string, key Key, fetch func(context.Context) (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[canonical] = key
	c.fetchers[canonical] = fetch
}

// matching returns the registered keys under any of the prefixes.
func (c *Client) matching(prefixes []Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for _, key := range c.index {
		for _, prefix := range prefixes {
			if key.HasPrefix(prefix) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// load fetches the value for a canonical key through singleflight, retrying
// transient failures, and writes the result into the store.
func (c *Client) load(ctx context.Context, canonical string, options Options) (any, error) {
	value, err, _ := c.group.Do(canonical, func() (any, error) {
		c.mu.Lock()
		fetch := c.fetchers[canonical]
		c.mu.Unlock()
		if fetch == nil {
			return nil, fmt.Errorf("no fetcher registered for key %s", canonical)
		}

		loadCtx, cancel := context.WithCancel(ctx)
		c.mu.Lock()
		c.inflight[canonical] = cancel
		c.mu.Unlock()
		defer func() {
			cancel()
			c.mu.Lock()
			if c.inflight[canonical] != nil {
				delete(c.inflight, canonical)
			}
			c.mu.Unlock()
		}()

		value, err := c.retry(loadCtx, fetch, options)
		if err != nil {
			return nil, err
		}

		if loadCtx.Err() != nil {
			// The fetch was cancelled (optimistic update fencing): the
			// response is stale by definition and must not land in the cache.
			return nil, loadCtx.Err()
		}

		c.store.Set(canonical, Entry{value: value, fetchedAt: time.Now()})
		return value, nil
	})
	return value, err
}

// retry runs fetch with deterministic exponential backoff, stopping
// immediately on terminal errors.
func (c *Client) retry(ctx context.Context, fetch func(context.Context) (any, error), options Options) (any, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = options.RetryBaseDelay
	expo.Multiplier = 2
	expo.MaxInterval = options.RetryMaxDelay
	expo.RandomizationFactor = 0

	return backoff.Retry(ctx, func() (any, error) {
		value, err := fetch(ctx)
		if err != nil && !options.Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return value, err
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(uint(options.MaxRetries)+1))
}

// backgroundRefetch reloads an invalidated, observed key. Failures are
// logged and swallowed: the entry stays stale and the next Fetch retries.
func (c *Client) backgroundRefetch(ctx context.Context, key Key) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("recover", r).Msg("background refetch panicked")
		}
	}()

	recordFetch(ctx, "refetch")
	if err := c.Refetch(ctx, key); err != nil {
		log.Debug().Err(err).Str("key", key.Canonical()).
			Msg("background refetch failed, entry remains stale")
	}
}
