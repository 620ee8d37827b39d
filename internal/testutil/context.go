package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds unit tests that wait on goroutines or channels.
const DefaultTimeout = 5 * time.Second

// Context returns a context that expires with the test. Pass 0 for the
// default timeout.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
