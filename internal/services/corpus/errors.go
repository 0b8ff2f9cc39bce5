package corpus

import (
	"errors"
	"fmt"
)

// ErrIndexBusy is returned when another rebuild holds the index lock
var ErrIndexBusy = errors.New("another index rebuild is running")

// IndexingIOError reports a file or directory that could not be read.
// The unit is skipped and the walk continues.
type IndexingIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IndexingIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IndexingIOError) Unwrap() error {
	return e.Err
}
