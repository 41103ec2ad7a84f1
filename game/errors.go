package game

import "errors"

type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindCollaborator
	KindConsistency
	KindResourceExhaustion
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCollaborator:
		return "collaborator-failure"
	case KindConsistency:
		return "consistency"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	}
	return "unknown"
}

// Error is a coded game error. The code is what clients see.
type Error struct {
	kind ErrorKind
	code string
}

func (e *Error) Error() string   { return e.code }
func (e *Error) Code() string    { return e.code }
func (e *Error) Kind() ErrorKind { return e.kind }

func newError(kind ErrorKind, code string) *Error {
	return &Error{kind: kind, code: code}
}

// Validation errors
var (
	ErrRoomNotFound       = newError(KindValidation, "room-not-found")
	ErrNotInRoom          = newError(KindValidation, "not-in-room")
	ErrUnknownPlayer      = newError(KindValidation, "unknown-player")
	ErrInvalidName        = newError(KindValidation, "invalid-name")
	ErrInvalidPrompt      = newError(KindValidation, "invalid-prompt")
	ErrNotInLobby         = newError(KindValidation, "not-in-lobby")
	ErrGameAlreadyStarted = newError(KindValidation, "game-already-started")
	ErrNotHost            = newError(KindValidation, "not-host")
	ErrNotEnoughPlayers   = newError(KindValidation, "not-enough-players")
	ErrNotAllReady        = newError(KindValidation, "not-all-ready")
	ErrWrongPhase         = newError(KindValidation, "wrong-phase")
	ErrAlreadySubmitted   = newError(KindValidation, "already-submitted")
	ErrSelfVote           = newError(KindValidation, "self-vote")
	ErrDuplicateVote      = newError(KindValidation, "duplicate-vote")
	ErrUnknownTarget      = newError(KindValidation, "unknown-target")
	ErrNotInResults       = newError(KindValidation, "not-in-results")
	ErrBadPayload         = newError(KindValidation, "bad-payload")
	ErrUnknownEvent       = newError(KindValidation, "unknown-event")
	ErrRoomClosed         = newError(KindValidation, "room-closed")
	ErrMissingFields      = newError(KindValidation, "missing-prompt-or-challenge")
)

// Resource exhaustion
var (
	ErrRoomFull           = newError(KindResourceExhaustion, "room-full")
	ErrCodeSpaceExhausted = newError(KindResourceExhaustion, "code-space-exhausted")
	ErrTooManyRooms       = newError(KindResourceExhaustion, "too-many-rooms")
	ErrRateLimited        = newError(KindResourceExhaustion, "rate-limited")
)

// Collaborator failures
var (
	ErrEvaluationFailed = newError(KindCollaborator, "evaluation-failed")
)

// Consistency
var (
	ErrStaleResult  = newError(KindConsistency, "stale-result")
	ErrBadPhaseEdge = newError(KindConsistency, "invalid-phase-transition")
)

// KindOf reports the kind of a game error. Anything that is not a game error
// is treated as a consistency problem.
func KindOf(err error) ErrorKind {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.kind
	}
	return KindConsistency
}

// CodeOf returns the client-facing code for err.
func CodeOf(err error) string {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.code
	}
	return "unknown-error"
}
