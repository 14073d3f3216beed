package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrWorkspace        = errors.New("workspace unavailable")
	ErrFrameGeneration  = errors.New("frame generation failed")
	ErrAudioAcquisition = errors.New("audio acquisition failed")
	ErrAssembly         = errors.New("video assembly failed")
	ErrPersistence      = errors.New("persistence failed")
)

// FrameError reports which frame aborted the frame stage.
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() []error {
	return []error{ErrFrameGeneration, e.Err}
}

// Invalid builds an ErrInvalidRequest with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
