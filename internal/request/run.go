package request

import (
	"context"
)

// Run executes call as one tracked invocation of key. On success apply
// receives the result under the tracker lock; on failure cached data is left
// alone. The error is ErrStale when the settlement was dropped.
func Run[T any](ctx context.Context, t *Tracker, key Key, mode Mode, call func(context.Context) (T, error), apply func(T)) (T, error) {
	rctx, tk := t.Begin(ctx, key, mode)

	v, err := call(rctx)
	if err == nil && rctx.Err() != nil && ctx.Err() == nil {
		// Superseded or cancelled after the call returned a value
		err = rctx.Err()
	}

	var fn func()
	if apply != nil {
		fn = func() { apply(v) }
	}
	if serr := t.Settle(tk, err, fn); serr != nil {
		var zero T
		return zero, serr
	}
	return v, nil
}

// Exec is Run for calls that produce no value
func Exec(ctx context.Context, t *Tracker, key Key, mode Mode, call func(context.Context) error, apply func()) error {
	_, err := Run(ctx, t, key, mode, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	}, func(struct{}) {
		if apply != nil {
			apply()
		}
	})
	return err
}
