package tui

import (
	"time"

	"github.com/yegors/livescribe/internal/session"
)

// StateMsg carries a new recording state.
type StateMsg struct {
	State session.State
}

// TranslationMsg carries a translation switch change.
type TranslationMsg struct {
	State session.TranslationState
}

// EntryAddedMsg carries a new final result.
type EntryAddedMsg struct {
	Entry session.Entry
}

// EntryTranslatedMsg attaches a translation to the entry with ID.
type EntryTranslatedMsg struct {
	ID          int64
	Translation string
}

// TranslationFailedMsg marks the entry with ID as untranslatable.
type TranslationFailedMsg struct {
	ID  int64
	Err error
}

// InterimMsg updates the in-progress text.
type InterimMsg struct {
	Text string
}

// InterimTranslationMsg updates the in-progress translation.
type InterimTranslationMsg struct {
	Text string
}

// DurationMsg carries the session duration.
type DurationMsg struct {
	Elapsed time.Duration
}

// AudioLevelMsg carries the microphone level (0..100).
type AudioLevelMsg struct {
	Level float64
}

// StatusMsg is a status line update.
type StatusMsg struct {
	Message string
	Level   session.StatusLevel
}

// ClearedMsg signals that the transcript was emptied.
type ClearedMsg struct{}

// ExportedMsg reports where an export was written.
type ExportedMsg struct {
	Path string
	Err  error
}

// ActionErrorMsg carries an error returned by a controller call.
type ActionErrorMsg struct {
	Err error
}

// ClearStatusMsg clears a status message after a timeout.
type ClearStatusMsg struct {
	Seq int
}
