package websocket

import (
	"time"

	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/pkg/logger"
)

// socketSink forwards session notifications to one browser. Sends never
// block; a full queue drops the message.
type socketSink struct {
	sender Sender
	logger *logger.Logger
}

func newSocketSink(sender Sender, log *logger.Logger) *socketSink {
	return &socketSink{sender: sender, logger: log}
}

func (s *socketSink) send(messageType string, data map[string]any) {
	if !s.sender.SendMessage(&Message{Type: messageType, Data: data}) {
		s.logger.Debug("Dropped session message", String("message_type", messageType))
	}
}

func (s *socketSink) StateChanged(state session.State) {
	s.send(MessageTypeState, map[string]any{"state": state})
}

func (s *socketSink) TranslationChanged(state session.TranslationState) {
	s.send(MessageTypeTranslation, map[string]any{
		"enabled":         state.Enabled,
		"target_language": state.TargetLanguage,
	})
}

func (s *socketSink) EntryAdded(entry session.Entry) {
	s.send(MessageTypeEntryAdded, map[string]any{"entry": entry})
}

func (s *socketSink) EntryTranslated(id int64, translation string) {
	s.send(MessageTypeEntryTranslated, map[string]any{"id": id, "translation": translation})
}

func (s *socketSink) TranslationFailed(id int64, err error) {
	s.send(MessageTypeTranslationFailed, map[string]any{"id": id, "error": err.Error()})
}

func (s *socketSink) Interim(text string) {
	s.send(MessageTypeInterim, map[string]any{"text": text})
}

func (s *socketSink) InterimTranslation(text string) {
	s.send(MessageTypeInterimTranslation, map[string]any{"text": text})
}

func (s *socketSink) Duration(elapsed time.Duration) {
	s.send(MessageTypeDuration, map[string]any{
		"seconds":   int64(elapsed / time.Second),
		"formatted": session.FormatDuration(elapsed),
	})
}

func (s *socketSink) AudioLevel(level float64) {
	s.send(MessageTypeAudioLevel, map[string]any{"level": level})
}

func (s *socketSink) Status(message string, level session.StatusLevel) {
	s.send(MessageTypeStatus, map[string]any{"message": message, "level": string(level)})
}

func (s *socketSink) Cleared() {
	s.send(MessageTypeCleared, map[string]any{})
}
