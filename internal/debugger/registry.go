package debugger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Registry owns at most one Session and serializes all access to it.
//
// The debugger is not reentrant: interleaving two commands scrambles their replies. Every
// operation therefore runs under an exclusive lease for its whole duration, from sending the
// command to updating the state.
type Registry struct {
	spawner Spawner
	logger  zerolog.Logger

	// sem is a one-slot semaphore; holding its token is holding the lease.
	sem     chan struct{}
	session *Session
}

// NewRegistry creates an empty registry that starts debuggers with spawner.
func NewRegistry(spawner Spawner, logger zerolog.Logger) *Registry {
	return &Registry{
		spawner: spawner,
		logger:  logger,
		sem:     make(chan struct{}, 1),
	}
}

// Lease is exclusive access to the registry's session slot.
type Lease struct {
	r *Registry
}

// Session returns the current session, or nil if none is loaded.
func (l *Lease) Session() *Session {
	return l.r.session
}

// State returns the current session state, StateNotLoaded when there is no session.
func (l *Lease) State() State {
	if l.r.session == nil {
		return StateNotLoaded
	}
	return l.r.session.state
}

// Replace terminates the current session, if any, and then spawns a fresh debugger for
// binaryPath. The new session starts in StateNotLoaded; it becomes visible through Session
// immediately, so callers that fail to finish loading must call Clear.
func (l *Lease) Replace(ctx context.Context, binaryPath string) (*Session, error) {
	l.Clear()

	proc, err := l.r.spawner.Spawn(ctx)
	if err != nil {
		return nil, err
	}

	s := newSession(proc, binaryPath, l.r.logger)
	l.r.session = s
	return s, nil
}

// Clear terminates the current session's debugger and empties the slot.
func (l *Lease) Clear() {
	old := l.r.session
	if old == nil {
		return
	}
	l.r.session = nil
	if err := old.proc.Terminate(); err != nil {
		old.logger.Warn().Err(err).Msg("Failed to terminate debugger")
		return
	}
	old.logger.Info().Msg("Debugger session closed")
}

// Acquire blocks until the lease is free or ctx is done. The returned release function must
// be called exactly once.
func (r *Registry) Acquire(ctx context.Context) (*Lease, func(), error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("waiting for debugger session: %w", ctx.Err())
	}
	return &Lease{r: r}, func() { <-r.sem }, nil
}

// Do runs fn while holding the lease.
func (r *Registry) Do(ctx context.Context, fn func(l *Lease) error) error {
	lease, release, err := r.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(lease)
}

// Close terminates the current session. It waits for any running operation to finish.
func (r *Registry) Close() error {
	return r.Do(context.Background(), func(l *Lease) error {
		l.Clear()
		return nil
	})
}
