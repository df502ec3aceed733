package recognition

import (
	"context"
	"fmt"
	"sync"
)

// Remote recognizer actions sent to the process that runs the speech SDK
const (
	ActionStart  = "start"
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionStop   = "stop"
)

// ControlFunc forwards a recognizer action to the remote side
type ControlFunc func(action string) error

// Remote is a recognizer whose events are produced elsewhere (a browser running
// the speech SDK) and pushed in with Deliver.
type Remote struct {
	control ControlFunc
	events  chan Event
	done    chan struct{}

	mu        sync.RWMutex
	closed    bool
	paused    bool
	closeOnce sync.Once
}

// NewRemote creates a remote recognizer that sends its actions through control
func NewRemote(control ControlFunc) *Remote {
	return &Remote{
		control: control,
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
	}
}

func (r *Remote) Events() <-chan Event {
	return r.events
}

func (r *Remote) Start(ctx context.Context) error {
	return r.send(ActionStart)
}

// Pause asks the remote side to stop listening. Stopping a speech SDK ends its
// session, so error-free cancellations are dropped until Resume.
func (r *Remote) Pause(ctx context.Context) error {
	r.setPaused(true)
	if err := r.send(ActionPause); err != nil {
		r.setPaused(false)
		return err
	}
	return nil
}

func (r *Remote) Resume(ctx context.Context) error {
	if err := r.send(ActionResume); err != nil {
		return err
	}
	r.setPaused(false)
	return nil
}

func (r *Remote) setPaused(paused bool) {
	r.mu.Lock()
	r.paused = paused
	r.mu.Unlock()
}

// Close tells the remote side to stop and closes the event stream
func (r *Remote) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()

		err = r.control(ActionStop)
	})
	return err
}

// Deliver pushes an event into the stream. It blocks until the consumer
// takes it and reports false when the recognizer is closed. A cancellation
// without an error while paused is the remote session winding down and is
// swallowed.
func (r *Remote) Deliver(ev Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	if r.paused && ev.Kind == Canceled && ev.Err == nil {
		return true
	}

	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Remote) send(action string) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return fmt.Errorf("recognizer closed")
	}
	if err := r.control(action); err != nil {
		return fmt.Errorf("recognizer %s: %w", action, err)
	}
	return nil
}
