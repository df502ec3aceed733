package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/internal/recognition"
	"github.com/yegors/livescribe/pkg/logger"
)

// ErrClientGone is returned when a request cannot reach the browser
var ErrClientGone = errors.New("websocket client is gone")

// DefaultMicrophoneTimeout bounds how long a browser has to answer a microphone request
const DefaultMicrophoneTimeout = 30 * time.Second

// Sender delivers a message to one browser
type Sender interface {
	SendMessage(message *Message) bool
}

type microphoneReply struct {
	granted bool
	name    string
	message string
}

// RemoteMicrophone acquires the browser's microphone over the socket. The
// browser captures audio itself and reports its level back.
type RemoteMicrophone struct {
	sender  Sender
	timeout time.Duration
	logger  *logger.Logger

	mu      sync.Mutex
	pending chan microphoneReply
	capture *remoteCapture
}

// NewRemoteMicrophone creates a microphone backed by the browser behind sender
func NewRemoteMicrophone(sender Sender, timeout time.Duration, log *logger.Logger) *RemoteMicrophone {
	if timeout <= 0 {
		timeout = DefaultMicrophoneTimeout
	}
	return &RemoteMicrophone{
		sender:  sender,
		timeout: timeout,
		logger:  log.Named("remote-microphone"),
	}
}

// Acquire asks the browser for microphone access and waits for its answer
func (m *RemoteMicrophone) Acquire(ctx context.Context) (audio.Capture, error) {
	reply := make(chan microphoneReply, 1)

	m.mu.Lock()
	if m.pending != nil {
		m.mu.Unlock()
		return nil, errors.New("microphone request already pending")
	}
	m.pending = reply
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.pending == reply {
			m.pending = nil
		}
		m.mu.Unlock()
	}()

	if !m.sender.SendMessage(&Message{Type: MessageTypeRequestMicrophone, Data: map[string]any{}}) {
		return nil, ErrClientGone
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	select {
	case r := <-reply:
		if !r.granted {
			return nil, microphoneError(r.name, r.message)
		}
		capture := &remoteCapture{sender: m.sender}
		m.mu.Lock()
		m.capture = capture
		m.mu.Unlock()
		m.logger.Debug("Microphone granted")
		return capture, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for microphone: %w", ctx.Err())
	}
}

// Answer resolves a pending Acquire. It reports false when nothing was waiting.
func (m *RemoteMicrophone) Answer(granted bool, name, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return false
	}
	m.pending <- microphoneReply{granted: granted, name: name, message: message}
	m.pending = nil
	return true
}

// UpdateLevel records a level reported by the browser for the active capture
func (m *RemoteMicrophone) UpdateLevel(level float64) {
	m.mu.Lock()
	capture := m.capture
	m.mu.Unlock()
	if capture != nil {
		capture.meter.Set(level)
	}
}

// microphoneError maps a getUserMedia error name to an error
func microphoneError(name, message string) error {
	switch name {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return fmt.Errorf("%s: %w", name, audio.ErrPermissionDenied)
	case "":
		if message == "" {
			return audio.ErrPermissionDenied
		}
		return errors.New(message)
	default:
		if message == "" {
			return errors.New(name)
		}
		return fmt.Errorf("%s: %s", name, message)
	}
}

type remoteCapture struct {
	sender Sender
	meter  audio.LevelMeter
	once   sync.Once
}

func (c *remoteCapture) Level() float64 {
	return c.meter.Level()
}

func (c *remoteCapture) Close() error {
	c.once.Do(func() {
		c.meter.Reset()
		c.sender.SendMessage(&Message{Type: MessageTypeReleaseMicrophone, Data: map[string]any{}})
	})
	return nil
}

// RemoteEngine runs recognition in the browser's speech SDK. Commands go out
// as recognizer messages and results come back through Deliver.
type RemoteEngine struct {
	sender Sender
	logger *logger.Logger

	mu     sync.Mutex
	active *recognition.Remote
}

// NewRemoteEngine creates an engine driving the browser behind sender
func NewRemoteEngine(sender Sender, log *logger.Logger) *RemoteEngine {
	return &RemoteEngine{
		sender: sender,
		logger: log.Named("remote-recognizer"),
	}
}

// NewRecognizer returns a recognizer whose commands are sent to the browser
func (e *RemoteEngine) NewRecognizer(ctx context.Context, capture audio.Capture, language string) (recognition.Recognizer, error) {
	var remote *recognition.Remote
	remote = recognition.NewRemote(func(action string) error {
		if action == recognition.ActionStop {
			e.mu.Lock()
			if e.active == remote {
				e.active = nil
			}
			e.mu.Unlock()
		}
		ok := e.sender.SendMessage(&Message{
			Type: MessageTypeRecognizer,
			Data: map[string]any{"action": action, "language": language},
		})
		if !ok {
			return ErrClientGone
		}
		return nil
	})

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, errors.New("recognizer already active")
	}
	e.active = remote
	e.mu.Unlock()

	e.logger.Debug("Remote recognizer created", String("language", language))
	return remote, nil
}

// Deliver forwards an event from the browser to the active recognizer
func (e *RemoteEngine) Deliver(ev recognition.Event) bool {
	e.mu.Lock()
	remote := e.active
	e.mu.Unlock()
	if remote == nil {
		e.logger.Debug("Dropping recognition event without active recognizer", String("kind", ev.Kind.String()))
		return false
	}
	return remote.Deliver(ev)
}
