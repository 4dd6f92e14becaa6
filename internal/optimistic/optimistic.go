// Package optimistic makes mutations visible in the query cache before the
// backend confirms them, and undoes them cleanly when it does not.
package optimistic

import (
	"context"

	"github.com/campusql/campusql-go/internal/query"
)

// UpdateContext records everything needed to undo one speculative cache
// write: the touched key and the entry exactly as it was beforehand. Its
// lifetime is bounded to a single mutation's request/response cycle.
type UpdateContext struct {
	Key      query.Key
	snapshot query.Entry
	hadValue bool
}

// Apply cancels any in-flight fetch for key (so a slow, now-stale response
// cannot clobber the speculative value), snapshots the current entry, and
// applies updater synchronously. When the key holds no value, updater
// receives the zero value and its result seeds the slot.
func Apply[T any](c *query.Client, key query.Key, updater func(T) T) *UpdateContext {
	c.CancelQueries(key)

	snapshot, had := c.Snapshot(key)

	current, _ := query.Get[T](c, key)
	query.Set(c, key, updater(current))

	return &UpdateContext{
		Key:      key,
		snapshot: snapshot,
		hadValue: had,
	}
}

// Rollback restores the entry captured in uc verbatim. A slot that held no
// value before the update is deleted again.
func Rollback(c *query.Client, uc *UpdateContext) {
	if uc == nil {
		return
	}
	if !uc.hadValue {
		c.Delete(uc.Key)
		return
	}
	c.Restore(uc.Key, uc.snapshot)
}

// WithUpdate wraps a real mutation with optimistic semantics: apply runs
// first and returns the contexts it created, then mutate issues the network
// call. On success the invalidate keys are reconciled against server truth;
// on failure every context is rolled back in registration order before the
// error is returned.
func WithUpdate(
	ctx context.Context,
	c *query.Client,
	apply func() []*UpdateContext,
	mutate func(context.Context) error,
	invalidate ...query.Key,
) error {
	contexts := apply()

	if err := mutate(ctx); err != nil {
		for _, uc := range contexts {
			Rollback(c, uc)
		}
		return err
	}

	if len(invalidate) > 0 {
		c.Invalidate(ctx, invalidate...)
	}
	return nil
}

// Batch runs a sequence of optimistic steps with all-or-nothing semantics:
// if any step fails, every previously applied step is rolled back before the
// error propagates. Compound mutations (a list and a detail view updated
// together) use this so both writes appear or neither does.
func Batch(c *query.Client, steps []func() (*UpdateContext, error)) ([]*UpdateContext, error) {
	applied := make([]*UpdateContext, 0, len(steps))

	for _, step := range steps {
		uc, err := step()
		if err != nil {
			for _, prev := range applied {
				Rollback(c, prev)
			}
			return nil, err
		}
		applied = append(applied, uc)
	}

	return applied, nil
}
