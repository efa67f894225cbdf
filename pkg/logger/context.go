package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a shared warn-level stderr
// logger when there is none.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return l
		}
	}
	return fallback()
}

var fallback = sync.OnceValue(func() Logger {
	l, err := New(Config{Level: "warn"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage-tracker: fallback logger unavailable: %v\n", err)
		return NewNop()
	}
	return l
})
