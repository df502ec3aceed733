package recognition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestConfidenceFromDetailedJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{"present", `{"DisplayText":"Hello.","NBest":[{"Confidence":0.93,"Lexical":"hello"}]}`, ptr(0.93)},
		{"empty nbest", `{"NBest":[]}`, nil},
		{"no confidence", `{"NBest":[{"Lexical":"hello"}]}`, nil},
		{"garbage", `not json`, nil},
		{"empty", ``, nil},
		{"out of range", `{"NBest":[{"Confidence":1.5}]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfidenceFromDetailedJSON(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %v, want %v", *got, *tt.want)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }

type controlRecorder struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (c *controlRecorder) control(action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
	return c.err
}

func (c *controlRecorder) Actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.actions...)
}

func TestRemoteForwardsActions(t *testing.T) {
	rec := &controlRecorder{}
	r := NewRemote(rec.control)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	r.Pause(ctx)
	r.Resume(ctx)
	r.Close()
	r.Close()

	want := []string{ActionStart, ActionPause, ActionResume, ActionStop}
	got := rec.Actions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("actions[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if err := r.Start(ctx); err == nil {
		t.Error("Start after Close should fail")
	}
}

func TestRemoteDeliver(t *testing.T) {
	r := NewRemote((&controlRecorder{}).control)

	if !r.Deliver(Event{Kind: Final, Text: "hello"}) {
		t.Fatal("Deliver should succeed while open")
	}
	ev := <-r.Events()
	if ev.Kind != Final || ev.Text != "hello" {
		t.Errorf("got %+v", ev)
	}

	r.Close()
	if r.Deliver(Event{Kind: Interim, Text: "late"}) {
		t.Error("Deliver after Close should report false")
	}
	if _, ok := <-r.Events(); ok {
		t.Error("events should be closed")
	}
}

func TestRemoteCloseUnblocksDeliver(t *testing.T) {
	r := NewRemote((&controlRecorder{}).control)

	// Fill the buffer so the next Deliver blocks
	for i := 0; i < cap(r.events); i++ {
		r.Deliver(Event{Kind: Interim})
	}

	done := make(chan bool)
	go func() { done <- r.Deliver(Event{Kind: Final}) }()

	time.Sleep(10 * time.Millisecond)
	r.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("blocked Deliver should report false after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Deliver stayed blocked after Close")
	}
}

func TestRemoteControlError(t *testing.T) {
	r := NewRemote((&controlRecorder{err: errors.New("socket gone")}).control)
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected control error")
	}
}

func TestRemoteIgnoresSessionEndWhilePaused(t *testing.T) {
	r := NewRemote((&controlRecorder{}).control)
	ctx := context.Background()
	r.Start(ctx)
	r.Pause(ctx)

	if !r.Deliver(Event{Kind: Canceled, Reason: "SessionStopped"}) {
		t.Fatal("Deliver should accept the event")
	}
	select {
	case ev := <-r.Events():
		t.Fatalf("session end while paused reached the consumer: %+v", ev)
	default:
	}

	// Errors still get through while paused
	r.Deliver(Event{Kind: Canceled, Reason: "Error", Err: errors.New("quota")})
	if ev := <-r.Events(); ev.Err == nil {
		t.Errorf("got %+v, want the error", ev)
	}

	r.Resume(ctx)
	r.Deliver(Event{Kind: Canceled, Reason: "SessionStopped"})
	if ev := <-r.Events(); ev.Kind != Canceled {
		t.Errorf("got %+v after resume", ev)
	}
}
