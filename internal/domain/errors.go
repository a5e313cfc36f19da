package domain

import "errors"

var (
	// ErrDuplicateQuizID is returned when creating a quiz whose id already denotes an active session.
	ErrDuplicateQuizID = errors.New("quiz id already in use")
	// ErrQuizNotFound is returned for toggle/validate/reveal on an unknown or expired quiz id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoSelection is returned when a user validates without any pending letters.
	ErrNoSelection = errors.New("no selection to validate")
	// ErrNoValidAnswer is returned when a free-text answer contains no known option letter.
	ErrNoValidAnswer = errors.New("no valid answer letters")
	// ErrAlreadyAnswered is returned when a user who already validated submits again.
	ErrAlreadyAnswered = errors.New("already answered")
	// ErrNotAuthor guards the author-only inspection of an open quiz.
	ErrNotAuthor = errors.New("only the quiz author may inspect it")
	// ErrPermissionDenied is returned by the transport admin gate.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStorageCorrupt marks an unreadable score snapshot. Stores recover by
	// starting from an empty scoreboard, so this is logged, never surfaced.
	ErrStorageCorrupt = errors.New("score storage corrupt")
)
