package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusql/campusql-go/internal/api"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	opts := DefaultOptions()
	opts.RetryBaseDelay = time.Millisecond
	opts.RetryMaxDelay = 5 * time.Millisecond

	c := NewClient(opts)
	t.Cleanup(c.Close)
	return c
}

func TestFetchCachesWithinStalenessWindow(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "payload", nil
	}

	first, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, "payload", first)

	second, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, "payload", second)

	assert.Equal(t, int32(1), calls.Load())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestFetchDeduplicatesConcurrentLoads(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const workers = 8
	results := make([]string, workers)
	errs := make([]error, workers)

	var started, done sync.WaitGroup
	for i := range workers {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			started.Done()
			results[i], errs[i] = Fetch(context.Background(), c, key, fetch)
		}()
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	c := testClient(t)

	var calls atomic.Int32
	terminal := &api.Error{Method: http.MethodGet, Path: "/users/u-404", StatusCode: http.StatusNotFound}

	_, err := Fetch(context.Background(), c, Users.Detail("u-404"),
		func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "", terminal
		})

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	c := testClient(t)

	var calls atomic.Int32
	transient := &api.Error{Method: http.MethodGet, Path: "/users", StatusCode: http.StatusInternalServerError}

	_, err := Fetch(context.Background(), c, Users.List(nil),
		func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "", transient
		},
		WithMaxRetries(3), WithRetryDelays(time.Millisecond, 2*time.Millisecond))

	require.Error(t, err)
	// initial attempt plus three retries
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	c := testClient(t)

	var calls atomic.Int32
	value, err := Fetch(context.Background(), c, Users.List(nil),
		func(ctx context.Context) (string, error) {
			if calls.Add(1) < 3 {
				return "", &api.Error{StatusCode: http.StatusBadGateway}
			}
			return "eventually", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "eventually", value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	// no subscribers: the entry goes stale but nothing refetches eagerly
	c.Invalidate(context.Background(), Users.All())

	second, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestInvalidateRefetchesObservedKeys(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	var calls atomic.Int32
	_, err := Fetch(context.Background(), c, key,
		func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		})
	require.NoError(t, err)

	unsubscribe := c.Subscribe(key)
	defer unsubscribe()

	c.Invalidate(context.Background(), Users.All())

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)

	value, ok := Get[int](c, key)
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestInvalidatePrefixScoping(t *testing.T) {
	c := testClient(t)

	var userCalls, collegeCalls atomic.Int32
	_, err := Fetch(context.Background(), c, Users.List(nil),
		func(ctx context.Context) (int, error) { return int(userCalls.Add(1)), nil })
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, Colleges.List(nil),
		func(ctx context.Context) (int, error) { return int(collegeCalls.Add(1)), nil })
	require.NoError(t, err)

	c.Invalidate(context.Background(), Users.All())

	_, err = Fetch(context.Background(), c, Users.List(nil),
		func(ctx context.Context) (int, error) { return int(userCalls.Add(1)), nil })
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, Colleges.List(nil),
		func(ctx context.Context) (int, error) { return int(collegeCalls.Add(1)), nil })
	require.NoError(t, err)

	assert.Equal(t, int32(2), userCalls.Load())
	assert.Equal(t, int32(1), collegeCalls.Load())
}

func TestSetGetDelete(t *testing.T) {
	c := testClient(t)
	key := Users.Detail("u-1")

	_, ok := Get[string](c, key)
	assert.False(t, ok)

	Set(c, key, "direct")

	value, ok := Get[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "direct", value)

	c.Delete(key)
	_, ok = Get[string](c, key)
	assert.False(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	c := testClient(t)
	key := Users.Detail("u-1")

	Set(c, key, "original")
	snapshot, ok := c.Snapshot(key)
	require.True(t, ok)

	Set(c, key, "speculative")
	current, _ := Get[string](c, key)
	assert.Equal(t, "speculative", current)

	c.Restore(key, snapshot)
	restored, ok := Get[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "original", restored)
}

func TestSnapshotMissingKey(t *testing.T) {
	c := testClient(t)

	_, ok := c.Snapshot(Users.Detail("absent"))
	assert.False(t, ok)
}

func TestRemovePrefix(t *testing.T) {
	c := testClient(t)

	Set(c, Users.List(nil), "users-list")
	Set(c, Users.Detail("u-1"), "user-detail")
	Set(c, Colleges.List(nil), "colleges-list")

	c.Remove(Users.All())

	_, ok := Get[string](c, Users.List(nil))
	assert.False(t, ok)
	_, ok = Get[string](c, Users.Detail("u-1"))
	assert.False(t, ok)

	value, ok := Get[string](c, Colleges.List(nil))
	require.True(t, ok)
	assert.Equal(t, "colleges-list", value)
}

func TestClearEvictsEverything(t *testing.T) {
	c := testClient(t)

	Set(c, Users.List(nil), "a")
	Set(c, Colleges.List(nil), "b")

	c.Clear()

	_, ok := Get[string](c, Users.List(nil))
	assert.False(t, ok)
	_, ok = Get[string](c, Colleges.List(nil))
	assert.False(t, ok)
}

func TestCancelQueriesDropsInflightResult(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	started := make(chan struct{})
	fetchErr := make(chan error, 1)

	go func() {
		_, err := Fetch(context.Background(), c, key,
			func(ctx context.Context) (string, error) {
				close(started)
				<-ctx.Done()
				return "too-late", ctx.Err()
			})
		fetchErr <- err
	}()

	<-started
	c.CancelQueries(key)

	err := <-fetchErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// the cancelled response must not land in the cache
	_, ok := Get[string](c, key)
	assert.False(t, ok)
}

func TestRefetchBypassesStaleness(t *testing.T) {
	c := testClient(t)
	key := Users.List(nil)

	var calls atomic.Int32
	_, err := Fetch(context.Background(), c, key,
		func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		})
	require.NoError(t, err)

	require.NoError(t, c.Refetch(context.Background(), key))
	assert.Equal(t, int32(2), calls.Load())

	value, ok := Get[int](c, key)
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestActiveKeys(t *testing.T) {
	c := testClient(t)

	userKey := Users.List(nil)
	collegeKey := Colleges.List(nil)

	unsubUser := c.Subscribe(userKey)
	unsubCollege := c.Subscribe(collegeKey)
	defer unsubCollege()

	all := c.ActiveKeys(nil)
	assert.Len(t, all, 2)

	users := c.ActiveKeys(Users.All())
	require.Len(t, users, 1)
	assert.Equal(t, userKey.Canonical(), users[0].Canonical())

	unsubUser()
	unsubUser() // idempotent

	assert.Empty(t, c.ActiveKeys(Users.All()))
	assert.Len(t, c.ActiveKeys(nil), 1)
}
