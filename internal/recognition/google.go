package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/pkg/logger"
)

// GoogleConfig holds settings for the Cloud Speech streaming engine
type GoogleConfig struct {
	CredentialsFile string // Empty means application default credentials
	SampleRate      int
}

// recognizeStream is the part of the Cloud Speech streaming client the recognizer uses
type recognizeStream interface {
	Send(*speechpb.StreamingRecognizeRequest) error
	Recv() (*speechpb.StreamingRecognizeResponse, error)
	CloseSend() error
}

type dialFunc func(ctx context.Context) (recognizeStream, io.Closer, error)

// GoogleEngine streams PCM captures to Google Cloud Speech-to-Text
type GoogleEngine struct {
	config GoogleConfig
	logger *logger.Logger
	dial   dialFunc
}

// NewGoogleEngine creates a Cloud Speech engine
func NewGoogleEngine(config GoogleConfig, log *logger.Logger) *GoogleEngine {
	if config.SampleRate <= 0 {
		config.SampleRate = 16000
	}
	e := &GoogleEngine{
		config: config,
		logger: log.Named("google-speech"),
	}
	e.dial = e.dialSpeech
	return e
}

func (e *GoogleEngine) dialSpeech(ctx context.Context) (recognizeStream, io.Closer, error) {
	var opts []option.ClientOption
	if e.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(e.config.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}
	return stream, client, nil
}

// NewRecognizer binds a recognizer to capture, which must provide raw PCM
func (e *GoogleEngine) NewRecognizer(ctx context.Context, capture audio.Capture, language string) (Recognizer, error) {
	pcm, ok := capture.(audio.PCMCapture)
	if !ok {
		return nil, fmt.Errorf("google speech engine needs a PCM capture, got %T", capture)
	}

	sampleRate := pcm.SampleRate()
	if sampleRate <= 0 {
		sampleRate = e.config.SampleRate
	}

	return &googleRecognizer{
		engine:     e,
		capture:    pcm,
		language:   language,
		sampleRate: sampleRate,
		events:     make(chan Event, 32),
		logger:     e.logger.With(String("language", language)),
	}, nil
}

type googleRecognizer struct {
	engine     *GoogleEngine
	capture    audio.PCMCapture
	language   string
	sampleRate int
	events     chan Event
	logger     *logger.Logger

	paused atomic.Bool

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	stream  recognizeStream
	client  io.Closer
	wg      sync.WaitGroup
}

func (r *googleRecognizer) Events() <-chan Event {
	return r.events
}

// Start opens the stream, sends the streaming config and begins pumping audio
func (r *googleRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recognizer closed")
	}
	if r.started {
		return nil
	}

	// The stream outlives the Start call, so it gets its own context
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, client, err := r.engine.dial(streamCtx)
	if err != nil {
		cancel()
		return err
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:            int32(r.sampleRate),
					LanguageCode:               r.language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		cancel()
		return fmt.Errorf("failed to send streaming config: %w", err)
	}

	r.cancel = cancel
	r.stream = stream
	r.client = client
	r.started = true

	r.wg.Add(2)
	go r.sendAudio(streamCtx)
	go r.receiveResults(streamCtx)

	r.logger.Info("Streaming recognition started", Int("sample_rate", r.sampleRate))
	return nil
}

// Pause stops forwarding audio; the stream stays open
func (r *googleRecognizer) Pause(ctx context.Context) error {
	r.paused.Store(true)
	return nil
}

func (r *googleRecognizer) Resume(ctx context.Context) error {
	r.paused.Store(false)
	return nil
}

// Close ends the stream and waits for both pumps to exit
func (r *googleRecognizer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	r.mu.Unlock()

	if !started {
		close(r.events)
		return nil
	}

	r.cancel()
	r.wg.Wait()
	close(r.events)

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("closing speech client: %w", err)
	}
	r.logger.Info("Streaming recognition stopped")
	return nil
}

func (r *googleRecognizer) sendAudio(ctx context.Context) {
	defer r.wg.Done()
	defer r.stream.CloseSend()

	samples := r.capture.Samples()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-samples:
			if !ok {
				return
			}
			if r.paused.Load() || len(chunk) == 0 {
				continue
			}
			if err := r.stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: chunk,
				},
			}); err != nil {
				// Recv reports the stream failure
				r.logger.Debug("Failed to send audio", Error(err))
				return
			}
		}
	}
}

func (r *googleRecognizer) receiveResults(ctx context.Context) {
	defer r.wg.Done()

	for {
		resp, err := r.stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				// Closed by us
				return
			}
			r.emit(ctx, canceledEvent(err))
			return
		}

		for _, ev := range eventsFromResponse(resp) {
			if !r.emit(ctx, ev) {
				return
			}
		}
	}
}

func (r *googleRecognizer) emit(ctx context.Context, ev Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func canceledEvent(err error) Event {
	if errors.Is(err, io.EOF) {
		return Event{Kind: Canceled, Reason: "EndOfStream"}
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.Canceled {
		return Event{Kind: Canceled, Reason: "Canceled"}
	}
	return Event{Kind: Canceled, Reason: "Error", Err: fmt.Errorf("speech stream: %w", err)}
}

// eventsFromResponse maps one streaming response to recognition events
func eventsFromResponse(resp *speechpb.StreamingRecognizeResponse) []Event {
	if resp == nil {
		return nil
	}
	if st := resp.GetError(); st != nil && st.GetCode() != 0 {
		return []Event{{
			Kind:   Canceled,
			Reason: "Error",
			Err:    fmt.Errorf("speech service error %d: %s", st.GetCode(), st.GetMessage()),
		}}
	}

	var events []Event
	var interim string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		best := alts[0]
		if result.GetIsFinal() {
			ev := Event{Kind: Final, Text: best.GetTranscript()}
			if c := float64(best.GetConfidence()); c > 0 {
				ev.Confidence = &c
			}
			events = append(events, ev)
			continue
		}
		// Unstable partial results arrive split across several entries
		interim += best.GetTranscript()
	}
	if interim != "" {
		events = append(events, Event{Kind: Interim, Text: interim})
	}
	return events
}
