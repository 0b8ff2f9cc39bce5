package ffmpeg

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFFmpegNotFound    = errors.New("ffmpeg binary not found")
	ErrFFprobeNotFound   = errors.New("ffprobe binary not found")
	ErrInvalidRange      = errors.New("invalid clip range")
	ErrProcessingTimeout = errors.New("ffmpeg processing timeout")
	ErrNoDuration        = errors.New("could not determine media duration")
)

// ProcessingError represents an error during an ffmpeg/ffprobe run
type ProcessingError struct {
	Operation string // The operation that failed (e.g., "cut", "probe")
	File      string // The file being processed
	Err       error  // The underlying error
	Output    string // combined stdout/stderr from the process
}

func (e *ProcessingError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("ffmpeg %s failed for %s: %v (output: %s)", e.Operation, e.File, e.Err, e.Output)
	}
	return fmt.Sprintf("ffmpeg %s failed for %s: %v", e.Operation, e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// TimedOut reports whether the run was killed by its deadline
func (e *ProcessingError) TimedOut() bool {
	return errors.Is(e.Err, ErrProcessingTimeout)
}

// NewProcessingError creates a new ProcessingError
func NewProcessingError(operation, file string, err error, output string) *ProcessingError {
	return &ProcessingError{
		Operation: operation,
		File:      file,
		Err:       err,
		Output:    output,
	}
}
