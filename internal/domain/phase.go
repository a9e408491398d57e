package domain

// Phase is the position of a session within the handshake.
// Phases are ordered; a session only ever moves to the next phase or to
// PhaseFailed.
type Phase int

const (
	PhaseAwaitingFirstFragment Phase = iota
	PhaseAwaitingSecondFragment
	PhaseCombining
	PhaseAwaitingFinalResult
	PhaseCompleted
	PhaseFailed
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstFragment:
		return "AwaitingFirstFragment"
	case PhaseAwaitingSecondFragment:
		return "AwaitingSecondFragment"
	case PhaseCombining:
		return "Combining"
	case PhaseAwaitingFinalResult:
		return "AwaitingFinalResult"
	case PhaseCompleted:
		return "Completed"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// canAdvance reports whether a session in phase p may move to next.
func (p Phase) canAdvance(next Phase) bool {
	if p.Terminal() {
		return false
	}
	if next == PhaseFailed {
		return true
	}
	return next == p+1
}
