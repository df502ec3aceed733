package session

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned by ExportTranscript when there is nothing to export
var ErrEmptyTranscript = errors.New("no transcript data to export")

// ErrStopped is returned when the controller's loop is no longer running
var ErrStopped = errors.New("session controller stopped")

// MicrophoneAccessError means the microphone could not be acquired; the session stays idle
type MicrophoneAccessError struct {
	Err error
}

func (e *MicrophoneAccessError) Error() string {
	return fmt.Sprintf("microphone access failed: %v", e.Err)
}

func (e *MicrophoneAccessError) Unwrap() error {
	return e.Err
}

// RecognitionEngineError means the recognizer failed to start or stopped with an error
type RecognitionEngineError struct {
	Reason string
	Err    error
}

func (e *RecognitionEngineError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("recognition engine error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("recognition engine error: %v", e.Err)
}

func (e *RecognitionEngineError) Unwrap() error {
	return e.Err
}
