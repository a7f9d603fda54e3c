// Package testutil provides helpers shared by ferroscope's tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns a debug-level logger that writes through t.Log, so its output only shows
// for failing or verbose tests. Lines logged after the test has finished are dropped.
func Logger(t testing.TB) zerolog.Logger {
	w := &logWriter{t: t}
	t.Cleanup(w.stop)

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

type logWriter struct {
	mu   sync.Mutex
	t    testing.TB
	done bool
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.done {
		w.t.Log(strings.TrimRight(string(p), "\n"))
	}
	return len(p), nil
}

func (w *logWriter) stop() {
	w.mu.Lock()
	w.done = true
	w.mu.Unlock()
}

// Context returns a context that is cancelled after timeout or when the test ends.
func Context(t testing.TB, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
