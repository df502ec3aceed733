package recognition

import (
	"context"
	"encoding/json"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/pkg/logger"
)

// Import logger functions
var (
	String = logger.String
	Int    = logger.Int
	Error  = logger.Error
)

// Kind identifies a recognition event
type Kind int

const (
	// Interim is a partial hypothesis for the utterance in progress
	Interim Kind = iota
	// Final is a completed utterance
	Final
	// Canceled means the engine stopped; Err is set when it stopped because of a failure
	Canceled
)

func (k Kind) String() string {
	switch k {
	case Interim:
		return "interim"
	case Final:
		return "final"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Event is one recognition result or a cancellation
type Event struct {
	Kind       Kind
	Text       string
	Confidence *float64 // Final only, in [0,1] when known
	Reason     string   // Canceled only
	Err        error    // Canceled only, nil for a normal end of stream
}

// Recognizer is a running recognition stream. Events is closed after Close.
type Recognizer interface {
	Events() <-chan Event
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Close() error
}

// Engine creates recognizers bound to an acquired capture
type Engine interface {
	NewRecognizer(ctx context.Context, capture audio.Capture, language string) (Recognizer, error)
}

// ConfidenceFromDetailedJSON reads NBest[0].Confidence from a detailed recognition
// result. It returns nil when the JSON is unparsable or carries no confidence.
func ConfidenceFromDetailedJSON(detailed string) *float64 {
	if detailed == "" {
		return nil
	}

	var result struct {
		NBest []struct {
			Confidence *float64 `json:"Confidence"`
		} `json:"NBest"`
	}
	if err := json.Unmarshal([]byte(detailed), &result); err != nil {
		return nil
	}
	if len(result.NBest) == 0 || result.NBest[0].Confidence == nil {
		return nil
	}

	c := *result.NBest[0].Confidence
	if c < 0 || c > 1 {
		return nil
	}
	return &c
}
