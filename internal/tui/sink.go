package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yegors/livescribe/internal/session"
)

// Sink turns session notifications into bubbletea messages.
type Sink struct {
	send func(tea.Msg)
}

// NewSink creates a sink that delivers through send, usually (*tea.Program).Send.
func NewSink(send func(tea.Msg)) *Sink {
	return &Sink{send: send}
}

func (s *Sink) StateChanged(state session.State) {
	s.send(StateMsg{State: state})
}

func (s *Sink) TranslationChanged(state session.TranslationState) {
	s.send(TranslationMsg{State: state})
}

func (s *Sink) EntryAdded(entry session.Entry) {
	s.send(EntryAddedMsg{Entry: entry})
}

func (s *Sink) EntryTranslated(id int64, translation string) {
	s.send(EntryTranslatedMsg{ID: id, Translation: translation})
}

func (s *Sink) TranslationFailed(id int64, err error) {
	s.send(TranslationFailedMsg{ID: id, Err: err})
}

func (s *Sink) Interim(text string) {
	s.send(InterimMsg{Text: text})
}

func (s *Sink) InterimTranslation(text string) {
	s.send(InterimTranslationMsg{Text: text})
}

func (s *Sink) Duration(elapsed time.Duration) {
	s.send(DurationMsg{Elapsed: elapsed})
}

func (s *Sink) AudioLevel(level float64) {
	s.send(AudioLevelMsg{Level: level})
}

func (s *Sink) Status(message string, level session.StatusLevel) {
	s.send(StatusMsg{Message: message, Level: level})
}

func (s *Sink) Cleared() {
	s.send(ClearedMsg{})
}
