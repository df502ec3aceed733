package websocket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/pkg/logger"
)

type echoProvider struct{}

func (echoProvider) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = to + ":" + t
	}
	return out, nil
}

// fakeSender queues messages for the test to inspect
type fakeSender struct {
	messages chan *Message
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(chan *Message, 512)}
}

func (f *fakeSender) SendMessage(m *Message) bool {
	select {
	case f.messages <- m:
		return true
	default:
		return false
	}
}

// expect skips messages until one of type arrives
func (f *fakeSender) expect(t *testing.T, messageType string) *Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-f.messages:
			if m.Type == messageType {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q message", messageType)
			return nil
		}
	}
}

// expectStatus skips messages until a status starting with prefix arrives
func (f *fakeSender) expectStatus(t *testing.T, prefix string) *Message {
	t.Helper()
	for {
		m := f.expect(t, MessageTypeStatus)
		if strings.HasPrefix(m.Data["message"].(string), prefix) {
			return m
		}
	}
}

func newTestSession(t *testing.T) (*SessionHandler, *clientSession, *fakeSender) {
	t.Helper()

	h := NewSessionHandler(context.Background(), SessionHandlerConfig{
		Session: session.Config{
			Language:              "en-US",
			DefaultTargetLanguage: "es",
		},
		MicrophoneTimeout: time.Second,
	}, func() session.Translator {
		return translation.NewClient(echoProvider{}, logger.NewNop())
	}, logger.NewNop())

	sender := newFakeSender()
	s := h.newClientSession("test-session", sender)
	t.Cleanup(func() {
		s.cancel()
		<-s.controller.Done()
	})
	return h, s, sender
}

func startRecording(t *testing.T, h *SessionHandler, s *clientSession, sender *fakeSender) {
	t.Helper()
	if err := h.dispatch(s, sender, MessageTypeStart, nil); err != nil {
		t.Fatal(err)
	}
	sender.expect(t, MessageTypeRequestMicrophone)
	if err := h.dispatch(s, sender, MessageTypeMicrophone, map[string]any{"granted": true}); err != nil {
		t.Fatal(err)
	}
	rec := sender.expect(t, MessageTypeRecognizer)
	if rec.Data["action"] != "start" || rec.Data["language"] != "en-US" {
		t.Fatalf("recognizer message = %v", rec.Data)
	}
	sender.expectStatus(t, "Recording started")
}

func TestHelloMessage(t *testing.T) {
	_, _, sender := newTestSession(t)

	hello := sender.expect(t, MessageTypeHello)
	if hello.Data["session_id"] != "test-session" || hello.Data["language"] != "en-US" {
		t.Errorf("hello = %v", hello.Data)
	}
	languages := hello.Data["languages"].(map[string]string)
	if languages["es"] != "Español" {
		t.Errorf("languages missing es: %v", languages)
	}
}

func TestStartAndRecognize(t *testing.T) {
	h, s, sender := newTestSession(t)
	startRecording(t, h, s, sender)

	h.dispatch(s, sender, MessageTypeRecognizing, map[string]any{"text": "hello wor"})
	interim := sender.expect(t, MessageTypeInterim)
	if interim.Data["text"] != "hello wor" {
		t.Errorf("interim = %v", interim.Data)
	}

	h.dispatch(s, sender, MessageTypeRecognized, map[string]any{
		"text": "hello world",
		"json": `{"NBest":[{"Confidence":0.87,"Display":"hello world"}]}`,
	})
	added := sender.expect(t, MessageTypeEntryAdded)
	entry := added.Data["entry"].(session.Entry)
	if entry.Text != "hello world" {
		t.Errorf("entry text = %q", entry.Text)
	}
	if entry.Confidence == nil || *entry.Confidence != 0.87 {
		t.Errorf("confidence = %v", entry.Confidence)
	}

	if err := h.dispatch(s, sender, MessageTypeExport, map[string]any{"format": "json"}); err != nil {
		t.Fatal(err)
	}
	export := sender.expect(t, MessageTypeExport)
	if export.Data["mime_type"] != "application/json" || !strings.Contains(export.Data["content"].(string), `"hello world"`) {
		t.Errorf("export = %v", export.Data)
	}
}

func TestTranslationOverSocket(t *testing.T) {
	h, s, sender := newTestSession(t)

	if err := h.dispatch(s, sender, MessageTypeToggleTranslation, map[string]any{}); err != nil {
		t.Fatal(err)
	}
	changed := sender.expect(t, MessageTypeTranslation)
	if changed.Data["enabled"] != true || changed.Data["target_language"] != "es" {
		t.Errorf("translation = %v", changed.Data)
	}

	startRecording(t, h, s, sender)
	h.dispatch(s, sender, MessageTypeRecognized, map[string]any{"text": "good night"})

	added := sender.expect(t, MessageTypeEntryAdded)
	translated := sender.expect(t, MessageTypeEntryTranslated)
	if translated.Data["id"] != added.Data["entry"].(session.Entry).ID {
		t.Errorf("translated id %v does not match entry", translated.Data["id"])
	}
	if translated.Data["translation"] != "es:good night" {
		t.Errorf("translation = %v", translated.Data["translation"])
	}

	if err := h.dispatch(s, sender, MessageTypeSetTargetLanguage, map[string]any{"language": ""}); err != nil {
		t.Fatal(err)
	}
	if status := sender.expectStatus(t, "Translation disabled"); status.Data["level"] != "info" {
		t.Errorf("level = %v", status.Data["level"])
	}
	if s.translator.Enabled() {
		t.Error("translation still enabled")
	}
}

func TestMicrophoneDenied(t *testing.T) {
	h, s, sender := newTestSession(t)

	h.dispatch(s, sender, MessageTypeStart, nil)
	sender.expect(t, MessageTypeRequestMicrophone)
	h.dispatch(s, sender, MessageTypeMicrophone, map[string]any{"granted": false, "error": "NotAllowedError"})

	status := sender.expectStatus(t, "Error: Microphone access denied")
	if status.Data["level"] != "error" {
		t.Errorf("level = %v", status.Data["level"])
	}

	snap, err := s.controller.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.State.IsRecording {
		t.Error("session should stay idle")
	}
}

func TestCanceledReleasesMicrophone(t *testing.T) {
	h, s, sender := newTestSession(t)
	startRecording(t, h, s, sender)

	h.dispatch(s, sender, MessageTypeCanceled, map[string]any{"reason": "Error", "error_details": "invalid subscription key"})

	sender.expectStatus(t, "Recognition error: invalid subscription key")
	stop := sender.expect(t, MessageTypeRecognizer)
	if stop.Data["action"] != "stop" {
		t.Errorf("recognizer action = %v", stop.Data["action"])
	}
	sender.expect(t, MessageTypeReleaseMicrophone)

	// Events after the recognizer closed are dropped
	h.dispatch(s, sender, MessageTypeRecognized, map[string]any{"text": "ignored"})
	snap, _ := s.controller.Snapshot(context.Background())
	if snap.State.IsRecording || len(snap.Entries) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPauseAndClearOverSocket(t *testing.T) {
	h, s, sender := newTestSession(t)
	startRecording(t, h, s, sender)

	h.dispatch(s, sender, MessageTypePause, nil)
	if rec := sender.expect(t, MessageTypeRecognizer); rec.Data["action"] != "pause" {
		t.Errorf("action = %v", rec.Data["action"])
	}

	h.dispatch(s, sender, MessageTypeRecognized, map[string]any{"text": "kept"})
	sender.expect(t, MessageTypeEntryAdded)

	h.dispatch(s, sender, MessageTypeClear, map[string]any{"confirm": false})
	snap, _ := s.controller.Snapshot(context.Background())
	if len(snap.Entries) != 1 {
		t.Fatal("unconfirmed clear removed entries")
	}

	h.dispatch(s, sender, MessageTypeClear, map[string]any{"confirm": true})
	sender.expect(t, MessageTypeCleared)
	snap, _ = s.controller.Snapshot(context.Background())
	if len(snap.Entries) != 0 {
		t.Error("confirmed clear kept entries")
	}
}

func TestPauseSurvivesBrowserSessionStop(t *testing.T) {
	h, s, sender := newTestSession(t)
	startRecording(t, h, s, sender)
	ctx := context.Background()

	h.dispatch(s, sender, MessageTypePause, nil)
	if rec := sender.expect(t, MessageTypeRecognizer); rec.Data["action"] != "pause" {
		t.Fatalf("action = %v", rec.Data["action"])
	}

	// Stopping recognition in the browser ends its SDK session
	if err := h.dispatch(s, sender, MessageTypeSessionStopped, nil); err != nil {
		t.Fatal(err)
	}
	snap, _ := s.controller.Snapshot(ctx)
	if !snap.State.IsRecording || !snap.State.IsPaused {
		t.Fatalf("state after pause = %+v, want paused", snap.State)
	}

	h.dispatch(s, sender, MessageTypePause, nil)
	if rec := sender.expect(t, MessageTypeRecognizer); rec.Data["action"] != "resume" {
		t.Fatalf("action = %v, want resume", rec.Data["action"])
	}
	snap, _ = s.controller.Snapshot(ctx)
	if !snap.State.IsRecording || snap.State.IsPaused {
		t.Errorf("state after resume = %+v, want recording", snap.State)
	}

	h.dispatch(s, sender, MessageTypeRecognized, map[string]any{"text": "still here"})
	sender.expect(t, MessageTypeEntryAdded)
}

func TestAudioLevelReachesController(t *testing.T) {
	h, s, sender := newTestSession(t)
	startRecording(t, h, s, sender)

	h.dispatch(s, sender, MessageTypeAudioLevel, map[string]any{"level": 150.0})
	s.mic.mu.Lock()
	capture := s.mic.capture
	s.mic.mu.Unlock()
	if capture.Level() != 100 {
		t.Errorf("level = %v, want clamped 100", capture.Level())
	}
}

func TestEmptyExportSendsOnlyStatus(t *testing.T) {
	h, s, sender := newTestSession(t)

	if err := h.dispatch(s, sender, MessageTypeExport, map[string]any{"format": "text"}); err != nil {
		t.Fatalf("empty export should not fail the message: %v", err)
	}
	sender.expectStatus(t, "No transcript data to export")
}

func TestUnknownMessageType(t *testing.T) {
	h, s, sender := newTestSession(t)
	if err := h.dispatch(s, sender, "bogus", nil); err == nil {
		t.Error("expected error for unknown message type")
	}
}

func TestMicrophoneErrorMapping(t *testing.T) {
	tests := []struct {
		name, message string
		denied        bool
	}{
		{"NotAllowedError", "", true},
		{"PermissionDeniedError", "blocked", true},
		{"", "", true},
		{"NotFoundError", "no device", false},
		{"NotReadableError", "", false},
	}
	for _, tt := range tests {
		err := microphoneError(tt.name, tt.message)
		if got := errors.Is(err, audio.ErrPermissionDenied); got != tt.denied {
			t.Errorf("microphoneError(%q, %q) denied = %v, want %v (%v)", tt.name, tt.message, got, tt.denied, err)
		}
	}
}

func TestRemoteMicrophoneTimeout(t *testing.T) {
	mic := NewRemoteMicrophone(newFakeSender(), 20*time.Millisecond, logger.NewNop())

	_, err := mic.Acquire(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if mic.Answer(true, "", "") {
		t.Error("late answer should find no pending request")
	}
}
