package clips

import (
	"errors"
	"fmt"

	"github.com/killallgit/subclip/internal/models"
)

// Repository and manager errors
var (
	ErrNotFound     = errors.New("clip request not found")
	ErrInvalidState = errors.New("clip request in wrong state")
	ErrValidation   = errors.New("invalid clip request")
)

// InvalidStateError is returned when a transition is attempted from a state
// that does not allow it, e.g. fulfilling a request that is not pending.
type InvalidStateError struct {
	ID     string
	Status models.ClipStatus
	Want   models.ClipStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("clip request %s is %s, expected %s", e.ID, e.Status, e.Want)
}

// Is makes errors.Is(err, ErrInvalidState) match
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// TranscodeError is a failed or timed out extraction. Output holds what the
// transcoder printed.
type TranscodeError struct {
	Input    string
	Output   string
	TimedOut bool
	Err      error
}

func (e *TranscodeError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("transcode of %s timed out: %v", e.Input, e.Err)
	}
	if e.Output != "" {
		return fmt.Sprintf("transcode of %s failed: %v: %s", e.Input, e.Err, lastLines(e.Output, 5))
	}
	return fmt.Sprintf("transcode of %s failed: %v", e.Input, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
