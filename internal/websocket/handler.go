package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/livescribe/internal/recognition"
	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/pkg/logger"
)

// SessionHandlerConfig holds settings for browser sessions
type SessionHandlerConfig struct {
	Session           session.Config
	MicrophoneTimeout time.Duration
}

// SessionHandler gives every connected browser its own session controller
// and routes socket messages to it.
type SessionHandler struct {
	ctx           context.Context
	config        SessionHandlerConfig
	newTranslator func() session.Translator
	logger        *logger.Logger

	mu       sync.Mutex
	sessions map[*Client]*clientSession
}

type clientSession struct {
	ctx        context.Context
	cancel     context.CancelFunc
	controller *session.Controller
	translator session.Translator
	mic        *RemoteMicrophone
	engine     *RemoteEngine
}

// NewSessionHandler creates a handler. Session loops stop when ctx is done.
func NewSessionHandler(ctx context.Context, config SessionHandlerConfig, newTranslator func() session.Translator, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		ctx:           ctx,
		config:        config,
		newTranslator: newTranslator,
		logger:        log.Named("session-handler"),
		sessions:      make(map[*Client]*clientSession),
	}
}

// ClientConnected starts a session for client
func (h *SessionHandler) ClientConnected(client *Client) {
	h.open(client.ID(), client)
}

// ClientDisconnected stops the client's session, releasing anything it held
func (h *SessionHandler) ClientDisconnected(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client]
	delete(h.sessions, client)
	h.mu.Unlock()

	if ok {
		s.cancel()
		h.logger.Info("Session closed", String("client_id", client.ID()))
	}
}

// SessionCount returns the number of live sessions
func (h *SessionHandler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *SessionHandler) open(id string, client *Client) {
	s := h.newClientSession(id, client)

	h.mu.Lock()
	h.sessions[client] = s
	h.mu.Unlock()

	h.logger.Info("Session opened", String("client_id", id))
}

// newClientSession starts a controller whose browser is reached through sender
func (h *SessionHandler) newClientSession(id string, sender Sender) *clientSession {
	log := h.logger.With(String("client_id", id))
	translator := h.newTranslator()

	s := &clientSession{
		translator: translator,
		mic:        NewRemoteMicrophone(sender, h.config.MicrophoneTimeout, log),
		engine:     NewRemoteEngine(sender, log),
	}
	s.ctx, s.cancel = context.WithCancel(h.ctx)
	s.controller = session.NewController(h.config.Session, s.mic, s.engine, translator, log,
		session.WithSink(newSocketSink(sender, log)))

	go s.controller.Run(s.ctx)

	sender.SendMessage(&Message{Type: MessageTypeHello, Data: map[string]any{
		"session_id": id,
		"language":   s.controller.Language(),
		"languages":  translation.SupportedLanguages(),
		"translation": map[string]any{
			"enabled":         translator.Enabled(),
			"target_language": translator.TargetLanguage(),
			"default":         h.config.Session.DefaultTargetLanguage,
		},
	}})
	return s
}

func (h *SessionHandler) lookup(client *Client) *clientSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[client]
}

// HandleMessage routes one client message to its session
func (h *SessionHandler) HandleMessage(client *Client, messageType string, data map[string]any) error {
	s := h.lookup(client)
	if s == nil {
		return fmt.Errorf("no session for client %s", client.ID())
	}
	return h.dispatch(s, client, messageType, data)
}

func (h *SessionHandler) dispatch(s *clientSession, client Sender, messageType string, data map[string]any) error {
	ctx := s.ctx
	ctrl := s.controller

	switch messageType {
	case MessageTypeStart:
		// Starting waits for the browser's microphone answer, which arrives on
		// this same read loop
		go func() {
			if err := ctrl.StartRecording(ctx); err != nil {
				h.logger.Warn("Failed to start recording", Error(err))
			}
		}()
		return nil

	case MessageTypeStop:
		return ctrl.StopRecording(ctx)

	case MessageTypePause:
		return ctrl.TogglePause(ctx)

	case MessageTypeClear:
		confirm := boolField(data, "confirm")
		_, err := ctrl.ClearTranscript(ctx, func() bool { return confirm })
		return err

	case MessageTypeExport:
		format := stringField(data, "format")
		if format == "" {
			format = session.FormatText
		}
		export, err := ctrl.ExportTranscript(ctx, format)
		if errors.Is(err, session.ErrEmptyTranscript) {
			return nil
		}
		if err != nil {
			return err
		}
		client.SendMessage(&Message{Type: MessageTypeExport, Data: map[string]any{
			"format":    export.Format,
			"filename":  export.Filename,
			"mime_type": export.MimeType,
			"content":   export.Content,
		}})
		return nil

	case MessageTypeSetTargetLanguage:
		return ctrl.SetTargetLanguage(ctx, stringField(data, "language"))

	case MessageTypeToggleTranslation:
		return ctrl.ToggleTranslation(ctx, stringField(data, "language"))

	case MessageTypeMicrophone:
		if !s.mic.Answer(boolField(data, "granted"), stringField(data, "error"), stringField(data, "message")) {
			h.logger.Debug("Microphone answer without pending request")
		}
		return nil

	case MessageTypeAudioLevel:
		if level, ok := floatField(data, "level"); ok {
			s.mic.UpdateLevel(level)
		}
		return nil

	case MessageTypeRecognizing:
		s.engine.Deliver(recognition.Event{Kind: recognition.Interim, Text: stringField(data, "text")})
		return nil

	case MessageTypeRecognized:
		s.engine.Deliver(recognition.Event{
			Kind:       recognition.Final,
			Text:       stringField(data, "text"),
			Confidence: recognition.ConfidenceFromDetailedJSON(stringField(data, "json")),
		})
		return nil

	case MessageTypeCanceled:
		reason := stringField(data, "reason")
		ev := recognition.Event{Kind: recognition.Canceled, Reason: reason}
		if details := stringField(data, "error_details"); details != "" {
			ev.Err = errors.New(details)
		} else if reason == "Error" {
			ev.Err = errors.New("recognition canceled")
		}
		s.engine.Deliver(ev)
		return nil

	case MessageTypeSessionStopped:
		s.engine.Deliver(recognition.Event{Kind: recognition.Canceled, Reason: "SessionStopped"})
		return nil

	default:
		return fmt.Errorf("unknown message type: %s", messageType)
	}
}
