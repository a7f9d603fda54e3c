package debugger

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session binds one debugger process to the program loaded in it.
//
// A Session is not safe for concurrent use; it is only reachable through a Registry lease.
type Session struct {
	id         string
	proc       Process
	state      State
	binaryPath string
	location   string
	createdAt  time.Time
	logger     zerolog.Logger
}

func newSession(proc Process, binaryPath string, logger zerolog.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:         id,
		proc:       proc,
		state:      StateNotLoaded,
		binaryPath: binaryPath,
		createdAt:  time.Now(),
		logger: logger.With().
			Str("session_id", id).
			Str("binary", binaryPath).
			Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the last observed program state.
func (s *Session) State() State { return s.state }

// BinaryPath returns the binary loaded in the debugger.
func (s *Session) BinaryPath() string { return s.binaryPath }

// CreatedAt returns when the debugger was spawned.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Location returns the current stop location. It is only reported while the program is
// stopped.
func (s *Session) Location() (string, bool) {
	if s.state != StateStopped || s.location == "" {
		return "", false
	}
	return s.location, true
}

// Exec sends one raw command and frames the reply.
//
// The session state is updated only from replies that were framed without an I/O failure;
// after ErrIO or ErrEOF the session keeps its last observed state.
func (s *Session) Exec(command string, framer *Framer) (Response, error) {
	if err := s.proc.Write(command); err != nil {
		s.logger.Warn().Err(err).Str("command", command).Msg("Failed to send debugger command")
		return Response{}, err
	}

	resp, err := framer.Frame(command, s.proc)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("command", command).
			Int("lines", resp.Lines).
			Msg("Debugger output ended mid-reply")
		return resp, err
	}

	s.apply(Observe(resp.Text))
	return resp, nil
}

func (s *Session) apply(obs Observation) {
	if obs.Changed && obs.State != s.state {
		s.logger.Info().
			Str("from", s.state.String()).
			Str("to", obs.State.String()).
			Msg("Program state changed")
		s.setState(obs.State)
	}
	if obs.HasLocation {
		s.location = obs.Location
	}
}

func (s *Session) setState(state State) {
	s.state = state
	if state != StateStopped {
		s.location = ""
	}
}

// Snapshot is a point-in-time copy of the session fields.
type Snapshot struct {
	SessionID  string
	State      State
	BinaryPath string
	Location   string
}

func (s *Session) snapshot() Snapshot {
	loc, _ := s.Location()
	return Snapshot{
		SessionID:  s.id,
		State:      s.state,
		BinaryPath: s.binaryPath,
		Location:   loc,
	}
}
