package session

import (
	"fmt"
	"strings"
	"time"
)

// Status message levels shown to the user
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusSuccess StatusLevel = "success"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
)

// Entry is one final recognition result
type Entry struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Confidence  *float64  `json:"confidence"`
	Translation string    `json:"translation,omitempty"`

	// set when a translation was requested for this entry and has not resolved yet
	awaitingTranslation bool
	// target language in effect when the entry was created
	translationLanguage string
}

// State is the recording state and counters of a session
type State struct {
	IsRecording         bool       `json:"isRecording"`
	IsPaused            bool       `json:"isPaused"`
	SessionStartTime    *time.Time `json:"sessionStartTime"`
	WordCount           int        `json:"wordCount"`
	TranslatedWordCount int        `json:"translatedWordCount"`
}

// TranslationState is the translation switch as seen by the session
type TranslationState struct {
	Enabled        bool   `json:"enabled"`
	TargetLanguage string `json:"targetLanguage"`
}

// Snapshot is a copy of everything a view needs to render a session
type Snapshot struct {
	State       State
	Translation TranslationState
	Entries     []Entry
	Interim     string
	Duration    time.Duration
	Language    string
}

// Sink receives session notifications. Calls come from the controller's loop
// and must not block.
type Sink interface {
	StateChanged(state State)
	TranslationChanged(state TranslationState)
	EntryAdded(entry Entry)
	EntryTranslated(id int64, translation string)
	TranslationFailed(id int64, err error)
	Interim(text string)
	InterimTranslation(text string)
	Duration(elapsed time.Duration)
	AudioLevel(level float64)
	Status(message string, level StatusLevel)
	Cleared()
}

// NopSink ignores every notification
type NopSink struct{}

func (NopSink) StateChanged(State)                  {}
func (NopSink) TranslationChanged(TranslationState) {}
func (NopSink) EntryAdded(Entry)                    {}
func (NopSink) EntryTranslated(int64, string)       {}
func (NopSink) TranslationFailed(int64, error)      {}
func (NopSink) Interim(string)                      {}
func (NopSink) InterimTranslation(string)           {}
func (NopSink) Duration(time.Duration)              {}
func (NopSink) AudioLevel(float64)                  {}
func (NopSink) Status(string, StatusLevel)          {}
func (NopSink) Cleared()                            {}

// CountWords returns the number of whitespace-separated tokens in text
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// FormatDuration renders d as HH:MM:SS
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
