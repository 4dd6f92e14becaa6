package query

import (
	"time"

	"github.com/campusql/campusql-go/internal/api"
)

// Options is the fetch policy for cached queries. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// StaleTime is the window during which a cached value is served without
	// a network call.
	StaleTime time.Duration

	// GCTime evicts entries that have gone unused for this long.
	GCTime time.Duration

	// MaxRetries bounds the retry attempts after the initial failure.
	// Terminal errors (per Retryable) are never retried.
	MaxRetries int

	// RetryBaseDelay and RetryMaxDelay shape the exponential backoff:
	// min(base * 2^attempt, max).
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Retryable classifies errors as transient or terminal. Defaults to the
	// API layer's pure classifier.
	Retryable func(error) bool

	// MaxEntries caps the entry store.
	MaxEntries int
}

// DefaultOptions matches the application-wide fetch policy: five minute
// staleness, ten minute garbage collection, three retries with exponential
// backoff capped at thirty seconds, and no retry for client errors.
func DefaultOptions() Options {
	return Options{
		StaleTime:      5 * time.Minute,
		GCTime:         10 * time.Minute,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  30 * time.Second,
		Retryable:      api.Retryable,
		MaxEntries:     10_000,
	}
}

// FetchOption overrides the client policy for a single fetch.
type FetchOption func(*Options)

// WithStaleTime overrides the staleness window for one fetch.
func WithStaleTime(d time.Duration) FetchOption {
	return func(o *Options) {
		o.StaleTime = d
	}
}

// WithMaxRetries overrides the retry budget for one fetch.
func WithMaxRetries(n int) FetchOption {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithRetryDelays overrides the backoff shape for one fetch.
func WithRetryDelays(base, max time.Duration) FetchOption {
	return func(o *Options) {
		o.RetryBaseDelay = base
		o.RetryMaxDelay = max
	}
}
