package polls

import "errors"

// Coordinator errors. All are deterministic precondition violations
// reported synchronously to the caller; none are transient.
var (
	ErrInvalidPoll    = errors.New("question and at least 2 options are required")
	ErrPollInProgress = errors.New("cannot create new poll while students are still answering")
	ErrPollNotFound   = errors.New("poll not found or expired")
	ErrPollClosed     = errors.New("poll has ended")
	ErrInvalidOption  = errors.New("invalid answer option")
)
