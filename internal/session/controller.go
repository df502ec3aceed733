package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/internal/recognition"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/pkg/logger"
)

// Import logger functions
var (
	String  = logger.String
	Int     = logger.Int
	Int64   = logger.Int64
	Float64 = logger.Float64
	Bool    = logger.Bool
	Error   = logger.Error
)

// Translator is the part of the translation client the session uses
type Translator interface {
	Enabled() bool
	TargetLanguage() string
	SetTargetLanguage(code string)
	Disable()
	TranslateTo(ctx context.Context, text, sourceLocale, target string) (string, bool, error)
	ScheduleInterim(ctx context.Context, text, sourceLocale string) <-chan translation.Result
	CancelPending()
}

// Config holds controller settings
type Config struct {
	Language               string        // Recognition locale, e.g. "en-US"
	DefaultTargetLanguage  string        // Used by ToggleTranslation when no language is given
	DurationTickInterval   time.Duration // Session duration display refresh (0 = off)
	AudioLevelTickInterval time.Duration // Audio level sampling (0 = off)
}

// Controller owns one transcription session. All state lives inside the Run
// loop; public methods post work into it and wait for the reply.
type Controller struct {
	config     Config
	mic        audio.Microphone
	engine     recognition.Engine
	translator Translator
	sink       Sink
	clock      clock.Clock
	location   *time.Location
	logger     *logger.Logger

	ops     chan func()
	async   chan func()
	stopped chan struct{}

	// Owned by the loop
	ctx            context.Context
	state          State
	entries        []Entry
	lastID         int64
	starting       bool
	capture        audio.Capture
	recognizer     recognition.Recognizer
	events         <-chan recognition.Event
	durationTicker *clock.Ticker
	levelTicker    *clock.Ticker
	pausedAt       time.Time
	pausedTotal    time.Duration
	endedAt        time.Time
	interim        string
	interimSeq     uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the clock used for timestamps, ids and tickers
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithLocation sets the time zone used for text export timestamps
func WithLocation(loc *time.Location) Option {
	return func(ctrl *Controller) {
		ctrl.location = loc
	}
}

// WithSink sets the notification sink
func WithSink(s Sink) Option {
	return func(ctrl *Controller) {
		ctrl.sink = s
	}
}

// NewController creates a controller. Call Run to start its loop.
func NewController(config Config, mic audio.Microphone, engine recognition.Engine, translator Translator, log *logger.Logger, opts ...Option) *Controller {
	if config.Language == "" {
		config.Language = "en-US"
	}

	c := &Controller{
		config:     config,
		mic:        mic,
		engine:     engine,
		translator: translator,
		sink:       NopSink{},
		clock:      clock.New(),
		location:   time.Local,
		logger:     log.Named("session"),
		ops:        make(chan func()),
		async:      make(chan func(), 64),
		stopped:    make(chan struct{}),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Done is closed once Run has returned
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

// Language returns the recognition locale
func (c *Controller) Language() string {
	return c.config.Language
}

// Run is the session's event loop. It returns when ctx is done, releasing
// the microphone and recognizer if a recording is active.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.stopped)
	defer c.cleanup()

	c.logger.Debug("Session loop started", String("language", c.config.Language))

	for {
		var durationC, levelC <-chan time.Time
		if c.durationTicker != nil {
			durationC = c.durationTicker.C
		}
		if c.levelTicker != nil {
			levelC = c.levelTicker.C
		}

		select {
		case <-ctx.Done():
			c.logger.Debug("Session loop stopped")
			return ctx.Err()

		case fn := <-c.ops:
			fn()

		case fn := <-c.async:
			fn()

		case ev, ok := <-c.events:
			if !ok {
				c.events = nil
				if c.state.IsRecording {
					c.logger.Warn("Recognizer event stream ended")
					c.cleanup()
				}
				continue
			}
			c.handleEvent(ev)

		case <-durationC:
			if c.state.IsRecording && !c.state.IsPaused {
				c.sink.Duration(c.elapsed())
			}

		case <-levelC:
			if c.capture != nil && c.state.IsRecording {
				c.sink.AudioLevel(c.capture.Level())
			}
		}
	}
}

// do runs fn inside the loop and waits for it to finish
func (c *Controller) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case c.ops <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// post queues fn from a background goroutine; it is dropped once the loop has stopped
func (c *Controller) post(fn func()) {
	select {
	case c.async <- fn:
	case <-c.stopped:
	}
}

// StartRecording moves Idle to Recording. It acquires the microphone and
// starts a recognizer; on failure the session stays idle and the error is
// also reported as a status message.
func (c *Controller) StartRecording(ctx context.Context) error {
	var busy bool
	if err := c.do(ctx, func() {
		if c.state.IsRecording || c.starting {
			busy = true
			return
		}
		c.starting = true
		c.sink.Status("Requesting microphone access...", StatusInfo)
	}); err != nil {
		return err
	}
	if busy {
		return nil
	}

	// Acquisition may wait on a user prompt, so it runs outside the loop
	capture, err := c.mic.Acquire(ctx)
	if err != nil {
		merr := &MicrophoneAccessError{Err: err}
		c.logger.Warn("Microphone access failed", Error(err))
		c.do(context.WithoutCancel(ctx), func() {
			c.starting = false
			c.sink.Status(microphoneErrorMessage(err), StatusError)
		})
		return merr
	}

	recognizer, err := c.engine.NewRecognizer(ctx, capture, c.config.Language)
	if err == nil {
		if err = recognizer.Start(ctx); err != nil {
			recognizer.Close()
		}
	}
	if err != nil {
		capture.Close()
		rerr := &RecognitionEngineError{Reason: "start", Err: err}
		c.logger.Error("Recognition start failed", Error(err))
		c.do(context.WithoutCancel(ctx), func() {
			c.starting = false
			c.sink.Status(fmt.Sprintf("Failed to start recording: %v", err), StatusError)
		})
		return rerr
	}

	// The loop owns the handles once this runs, so it must not be abandoned
	if err := c.do(context.WithoutCancel(ctx), func() {
		c.starting = false
		c.capture = capture
		c.recognizer = recognizer
		c.events = recognizer.Events()

		now := c.clock.Now()
		c.state.IsRecording = true
		c.state.IsPaused = false
		c.state.SessionStartTime = &now
		c.pausedTotal = 0
		c.pausedAt = time.Time{}
		c.endedAt = time.Time{}

		if c.config.DurationTickInterval > 0 {
			c.durationTicker = c.clock.Ticker(c.config.DurationTickInterval)
		}
		if c.config.AudioLevelTickInterval > 0 {
			c.levelTicker = c.clock.Ticker(c.config.AudioLevelTickInterval)
		}

		c.logger.Info("Recording started", String("language", c.config.Language))
		c.sink.StateChanged(c.state)
		c.sink.Duration(0)
		c.sink.Status("Recording started - speak now!", StatusSuccess)
	}); err != nil {
		recognizer.Close()
		capture.Close()
		return err
	}
	return nil
}

// TogglePause switches between Recording and Paused; it does nothing when idle
func (c *Controller) TogglePause(ctx context.Context) error {
	var result error
	err := c.do(ctx, func() {
		if !c.state.IsRecording || c.recognizer == nil {
			return
		}

		now := c.clock.Now()
		if c.state.IsPaused {
			if err := c.recognizer.Resume(ctx); err != nil {
				result = &RecognitionEngineError{Reason: "resume", Err: err}
				c.sink.Status(fmt.Sprintf("Failed to resume recording: %v", err), StatusError)
				return
			}
			c.pausedTotal += now.Sub(c.pausedAt)
			c.pausedAt = time.Time{}
			c.state.IsPaused = false
			c.sink.Status("Recording resumed", StatusSuccess)
		} else {
			if err := c.recognizer.Pause(ctx); err != nil {
				result = &RecognitionEngineError{Reason: "pause", Err: err}
				c.sink.Status(fmt.Sprintf("Failed to pause recording: %v", err), StatusError)
				return
			}
			c.pausedAt = now
			c.state.IsPaused = true
			c.sink.Status("Recording paused", StatusInfo)
		}
		c.logger.Info("Recording pause toggled", Bool("paused", c.state.IsPaused))
		c.sink.StateChanged(c.state)
	})
	if err != nil {
		return err
	}
	return result
}

// StopRecording moves Recording or Paused to Idle and releases all resources
func (c *Controller) StopRecording(ctx context.Context) error {
	return c.do(ctx, func() {
		if !c.state.IsRecording {
			return
		}
		c.cleanup()
		c.logger.Info("Recording stopped", Int("entries", len(c.entries)))
		c.sink.Status("Recording stopped", StatusInfo)
	})
}

// ClearTranscript empties the transcript and counters when confirm agrees; a
// nil confirm counts as no. It reports whether the transcript was cleared.
// Translation settings are kept.
func (c *Controller) ClearTranscript(ctx context.Context, confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}

	err := c.do(ctx, func() {
		c.entries = nil
		c.state.WordCount = 0
		c.state.TranslatedWordCount = 0
		c.clearInterim()

		c.logger.Info("Transcript cleared")
		c.sink.Cleared()
		c.sink.StateChanged(c.state)
		c.sink.Status("Transcript and translations cleared", StatusInfo)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExportTranscript serializes the transcript as "text" ("txt") or "json".
// It returns ErrEmptyTranscript when there are no entries.
func (c *Controller) ExportTranscript(ctx context.Context, format string) (Export, error) {
	var (
		export Export
		result error
	)
	err := c.do(ctx, func() {
		export, result = buildExport(format, exportInput{
			entries:     c.entries,
			state:       c.state,
			translation: c.translationState(),
			language:    c.config.Language,
			duration:    c.elapsed(),
			now:         c.clock.Now(),
			location:    c.location,
		})
		switch {
		case errors.Is(result, ErrEmptyTranscript):
			c.sink.Status("No transcript data to export", StatusError)
		case result != nil:
			c.sink.Status(result.Error(), StatusError)
		default:
			c.sink.Status(fmt.Sprintf("Transcript exported as %s", strings.ToUpper(exportLabel(export.Format))), StatusSuccess)
		}
	})
	if err != nil {
		return Export{}, err
	}
	return export, result
}

// EnableTranslation turns translation on for code, which must be a supported language
func (c *Controller) EnableTranslation(ctx context.Context, code string) error {
	var result error
	err := c.do(ctx, func() {
		if !translation.IsSupported(code) {
			result = fmt.Errorf("unsupported target language: %q", code)
			c.sink.Status("Please select a target language first", StatusError)
			return
		}
		c.translator.SetTargetLanguage(code)
		c.logger.Info("Translation enabled", String("target_language", code))
		c.sink.TranslationChanged(c.translationState())
		c.sink.Status(fmt.Sprintf("Translation enabled: %s", translation.LanguageDisplayName(code)), StatusSuccess)
	})
	if err != nil {
		return err
	}
	return result
}

// DisableTranslation turns translation off. Translations already in flight still land.
func (c *Controller) DisableTranslation(ctx context.Context) error {
	return c.do(ctx, func() {
		c.translator.Disable()
		c.translator.CancelPending()
		c.interimSeq++
		c.sink.InterimTranslation("")
		c.logger.Info("Translation disabled")
		c.sink.TranslationChanged(c.translationState())
		c.sink.Status("Translation disabled", StatusInfo)
	})
}

// ToggleTranslation disables translation when on, otherwise enables it for
// code (or the configured default when code is empty).
func (c *Controller) ToggleTranslation(ctx context.Context, code string) error {
	if c.translator.Enabled() {
		return c.DisableTranslation(ctx)
	}
	if code == "" {
		code = c.config.DefaultTargetLanguage
	}
	return c.EnableTranslation(ctx, code)
}

// SetTargetLanguage enables translation for code, or disables it when code is empty
func (c *Controller) SetTargetLanguage(ctx context.Context, code string) error {
	if code == "" {
		return c.DisableTranslation(ctx)
	}
	return c.EnableTranslation(ctx, code)
}

// Snapshot returns a copy of the session for rendering and tests
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, func() {
		entries := make([]Entry, len(c.entries))
		copy(entries, c.entries)
		state := c.state
		if state.SessionStartTime != nil {
			start := *state.SessionStartTime
			state.SessionStartTime = &start
		}
		snap = Snapshot{
			State:       state,
			Translation: c.translationState(),
			Entries:     entries,
			Interim:     c.interim,
			Duration:    c.elapsed(),
			Language:    c.config.Language,
		}
	})
	return snap, err
}

func (c *Controller) handleEvent(ev recognition.Event) {
	switch ev.Kind {
	case recognition.Interim:
		c.onInterimResult(ev.Text)
	case recognition.Final:
		c.onFinalResult(ev.Text, ev.Confidence)
	case recognition.Canceled:
		c.onCanceled(ev)
	}
}

func (c *Controller) onFinalResult(text string, confidence *float64) {
	if text == "" {
		return
	}

	entry := Entry{
		ID:         c.nextID(),
		Text:       text,
		Timestamp:  c.clock.Now(),
		Confidence: confidence,
	}
	enabled := c.translator.Enabled()
	target := c.translator.TargetLanguage()
	entry.awaitingTranslation = enabled
	if enabled {
		entry.translationLanguage = target
	}

	c.entries = append(c.entries, entry)
	c.state.WordCount += CountWords(text)

	c.sink.EntryAdded(entry)
	c.sink.StateChanged(c.state)
	c.clearInterim()

	if enabled {
		id := entry.ID
		go func() {
			translated, ok, err := c.translator.TranslateTo(c.ctx, text, c.config.Language, target)
			c.post(func() { c.applyTranslation(id, translated, ok, err) })
		}()
	}
}

// applyTranslation attaches a finished translation to its entry. Results for
// entries removed by a clear are dropped.
func (c *Controller) applyTranslation(id int64, translated string, ok bool, err error) {
	idx := c.indexOf(id)
	if idx < 0 {
		c.logger.Debug("Discarding translation for cleared entry", Int64("entry_id", id))
		return
	}
	entry := &c.entries[idx]
	if !entry.awaitingTranslation {
		return
	}
	entry.awaitingTranslation = false

	if err != nil {
		c.logger.Warn("Translation failed", Int64("entry_id", id), Error(err))
		c.sink.TranslationFailed(id, err)
		return
	}
	// Translation was switched off before the request went out
	if !ok {
		c.logger.Debug("Translation skipped", Int64("entry_id", id))
		return
	}

	entry.Translation = translated
	c.state.TranslatedWordCount += CountWords(translated)
	c.sink.EntryTranslated(id, translated)
	c.sink.StateChanged(c.state)
}

func (c *Controller) onInterimResult(text string) {
	c.interim = text
	c.sink.Interim(text)

	if !c.translator.Enabled() || strings.TrimSpace(text) == "" {
		c.sink.InterimTranslation("")
		return
	}

	c.interimSeq++
	seq := c.interimSeq
	results := c.translator.ScheduleInterim(c.ctx, text, c.config.Language)
	go func() {
		r := <-results
		if !r.OK {
			return
		}
		c.post(func() {
			// A final result or a newer interim may have replaced this one
			if seq == c.interimSeq {
				c.sink.InterimTranslation(r.Text)
			}
		})
	}()
}

func (c *Controller) clearInterim() {
	c.interimSeq++
	if c.interim != "" {
		c.interim = ""
		c.sink.Interim("")
	}
	c.sink.InterimTranslation("")
}

func (c *Controller) onCanceled(ev recognition.Event) {
	if ev.Err != nil {
		rerr := &RecognitionEngineError{Reason: ev.Reason, Err: ev.Err}
		c.logger.Error("Recognition canceled", String("reason", ev.Reason), Error(rerr))
		c.sink.Status(fmt.Sprintf("Recognition error: %v", ev.Err), StatusError)
	} else {
		c.logger.Info("Recognition canceled", String("reason", ev.Reason))
	}
	c.cleanup()
}

// cleanup releases the recognizer, capture and tickers and returns to Idle
func (c *Controller) cleanup() {
	wasRecording := c.state.IsRecording

	if c.recognizer != nil {
		if err := c.recognizer.Close(); err != nil {
			c.logger.Warn("Error closing recognizer", Error(err))
		}
		c.recognizer = nil
	}
	c.events = nil

	if c.capture != nil {
		if err := c.capture.Close(); err != nil {
			c.logger.Warn("Error releasing microphone", Error(err))
		}
		c.capture = nil
	}

	if c.durationTicker != nil {
		c.durationTicker.Stop()
		c.durationTicker = nil
	}
	if c.levelTicker != nil {
		c.levelTicker.Stop()
		c.levelTicker = nil
	}

	c.translator.CancelPending()

	if !wasRecording {
		return
	}

	now := c.clock.Now()
	if c.state.IsPaused && !c.pausedAt.IsZero() {
		c.pausedTotal += now.Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
	c.endedAt = now
	c.state.IsRecording = false
	c.state.IsPaused = false

	c.clearInterim()
	c.sink.AudioLevel(0)
	c.sink.StateChanged(c.state)
}

// elapsed is the recording time excluding pauses, frozen once recording ends
func (c *Controller) elapsed() time.Duration {
	if c.state.SessionStartTime == nil {
		return 0
	}

	end := c.clock.Now()
	if !c.state.IsRecording && !c.endedAt.IsZero() {
		end = c.endedAt
	}

	d := end.Sub(*c.state.SessionStartTime) - c.pausedTotal
	if c.state.IsPaused && !c.pausedAt.IsZero() {
		d -= end.Sub(c.pausedAt)
	}
	if d < 0 {
		return 0
	}
	return d
}

func (c *Controller) nextID() int64 {
	id := c.clock.Now().UnixNano()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *Controller) indexOf(id int64) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) translationState() TranslationState {
	return TranslationState{
		Enabled:        c.translator.Enabled(),
		TargetLanguage: c.translator.TargetLanguage(),
	}
}

func microphoneErrorMessage(err error) string {
	if errors.Is(err, audio.ErrPermissionDenied) {
		return "Error: Microphone access denied. Please allow microphone access and try again."
	}
	return fmt.Sprintf("Error: Could not access microphone: %v", err)
}

func exportLabel(format string) string {
	if format == FormatText {
		return "txt"
	}
	return format
}
