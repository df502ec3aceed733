package audio

import (
	"context"
	"errors"

	"github.com/yegors/livescribe/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Int    = logger.Int
	Error  = logger.Error
)

// ErrPermissionDenied is returned when the user refuses microphone access
var ErrPermissionDenied = errors.New("microphone permission denied")

// Capture is an acquired microphone. Close releases the device.
type Capture interface {
	// Level returns the current input level in 0..100
	Level() float64
	Close() error
}

// PCMCapture is a capture that also exposes its raw audio as
// 16-bit little-endian mono PCM chunks. The channel is closed on Close.
type PCMCapture interface {
	Capture
	Samples() <-chan []byte
	SampleRate() int
}

// Microphone acquires exclusive access to an input device
type Microphone interface {
	Acquire(ctx context.Context) (Capture, error)
}
