package match

import "errors"

// Join and leave rejections.
var (
	ErrSessionFull             = errors.New("session is full")
	ErrAlreadyStarted          = errors.New("session already started")
	ErrAlreadyJoined           = errors.New("user already joined")
	ErrCannotLeaveWhilePlaying = errors.New("cannot leave while playing")
	ErrNotInSession            = errors.New("user is not in session")
)

// Guess pipeline rejections.
var (
	ErrSessionEnded        = errors.New("session has ended")
	ErrNotStarted          = errors.New("session has not started")
	ErrCrossChannel        = errors.New("input channel does not belong to user")
	ErrInvalidGuessLength  = errors.New("guess has wrong length")
	ErrWordNotInDictionary = errors.New("word not in dictionary")
	ErrDuplicateGuess      = errors.New("word already guessed")
)

// ErrNoWinnerAtEnd is an invariant violation: End ran for a variant that
// requires a winner before one was claimed.
var ErrNoWinnerAtEnd = errors.New("no winner at end")

// Engine errors.
var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrInvalidConfig   = errors.New("invalid session config")
	ErrSessionNotFound = errors.New("session not found")
)

// IsSilent reports whether err is an input rejection the transport must not
// surface to the user. Dictionary and duplicate rejections are included
// because the session already showed them as transient notices.
func IsSilent(err error) bool {
	for _, target := range []error{
		ErrSessionEnded,
		ErrNotStarted,
		ErrCrossChannel,
		ErrInvalidGuessLength,
		ErrNotInSession,
		ErrWordNotInDictionary,
		ErrDuplicateGuess,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// rejectionKey maps a join/leave rejection to its catalog key.
func rejectionKey(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrSessionFull):
		return KeyFull, true
	case errors.Is(err, ErrAlreadyStarted):
		return KeyAlreadyStarted, true
	case errors.Is(err, ErrAlreadyJoined):
		return KeyAlreadyJoined, true
	case errors.Is(err, ErrCannotLeaveWhilePlaying):
		return KeyCannotLeave, true
	case errors.Is(err, ErrNotInSession):
		return KeyNotInSession, true
	}
	return "", false
}
