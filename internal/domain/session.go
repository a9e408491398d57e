package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the three-phase handshake.
// A Session is safe for concurrent use; the driver mutates it while other
// goroutines may read a Result.
type Session struct {
	mu sync.RWMutex

	id    string
	phase Phase

	firstFragment  string
	secondFragment string
	combinedCode   string
	finalMessage   string
	err            error

	startedAt  time.Time
	finishedAt time.Time
}

// Result is a point-in-time copy of a Session.
type Result struct {
	SessionID      string
	Phase          Phase
	FirstFragment  string
	SecondFragment string
	CombinedCode   string
	FinalMessage   string
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewSession creates a session in PhaseAwaitingFirstFragment with a random ID.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		phase:     PhaseAwaitingFirstFragment,
		startedAt: time.Now(),
	}
}

// Combine returns the combined code: first always precedes second.
func Combine(first, second string) string {
	return first + second
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Result returns a copy of the session state.
func (s *Session) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Result{
		SessionID:      s.id,
		Phase:          s.phase,
		FirstFragment:  s.firstFragment,
		SecondFragment: s.secondFragment,
		CombinedCode:   s.combinedCode,
		FinalMessage:   s.finalMessage,
		Err:            s.err,
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
	}
}

// SetFirstFragment records the fragment returned by phase 1 and moves the
// session to PhaseAwaitingSecondFragment.
func (s *Session) SetFirstFragment(fragment string) error {
	if fragment == "" {
		return fmt.Errorf("%w: part1", ErrMissingField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance(PhaseAwaitingSecondFragment); err != nil {
		return err
	}
	s.firstFragment = fragment
	return nil
}

// SetSecondFragment records the fragment delivered by the callback and moves
// the session to PhaseCombining. Blank fragments are rejected with
// ErrEmptyPayload and leave the session untouched.
func (s *Session) SetSecondFragment(fragment string) error {
	if strings.TrimSpace(fragment) == "" {
		return ErrEmptyPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance(PhaseCombining); err != nil {
		return err
	}
	s.secondFragment = fragment
	return nil
}

// CombineFragments derives the combined code and moves the session to
// PhaseAwaitingFinalResult.
func (s *Session) CombineFragments() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance(PhaseAwaitingFinalResult); err != nil {
		return "", err
	}
	s.combinedCode = Combine(s.firstFragment, s.secondFragment)
	return s.combinedCode, nil
}

// Complete records the final message and ends the session in PhaseCompleted.
func (s *Session) Complete(message string) error {
	if message == "" {
		return fmt.Errorf("%w: msg", ErrMissingField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance(PhaseCompleted); err != nil {
		return err
	}
	s.finalMessage = message
	s.finishedAt = time.Now()
	return nil
}

// Fail ends the session in PhaseFailed with the given cause.
// Failing an already terminal session returns ErrInvalidTransition.
func (s *Session) Fail(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.advance(PhaseFailed); err != nil {
		return err
	}
	s.err = cause
	s.finishedAt = time.Now()
	return nil
}

// advance must be called with mu held.
func (s *Session) advance(next Phase) error {
	if !s.phase.canAdvance(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, next)
	}
	s.phase = next
	return nil
}
