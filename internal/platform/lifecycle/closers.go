// Package lifecycle releases process resources on shutdown
package lifecycle

import (
	"context"
	"errors"
)

// Closers releases resources in reverse order of acquisition
type Closers []func(ctx context.Context) error

func (cs *Closers) Push(fn func(ctx context.Context) error) {
	*cs = append(*cs, fn)
}

// PushFunc adds a closer that cannot fail
func (cs *Closers) PushFunc(fn func()) {
	cs.Push(func(context.Context) error { fn(); return nil })
}

// CloseAll runs every closer, newest first, and joins their errors
func (cs Closers) CloseAll(ctx context.Context) error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		errs = append(errs, cs[i](ctx))
	}
	return errors.Join(errs...)
}
