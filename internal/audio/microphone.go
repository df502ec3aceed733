package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/yegors/livescribe/pkg/logger"
)

// LocalMicrophone captures from the default input device through miniaudio
type LocalMicrophone struct {
	sampleRate int
	logger     *logger.Logger
}

// NewLocalMicrophone creates a microphone that captures 16-bit mono PCM at sampleRate
func NewLocalMicrophone(sampleRate int, log *logger.Logger) *LocalMicrophone {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &LocalMicrophone{
		sampleRate: sampleRate,
		logger:     log.Named("microphone"),
	}
}

// Acquire opens and starts the default capture device
func (m *LocalMicrophone) Acquire(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}

	c := &localCapture{
		mctx:       mctx,
		sampleRate: m.sampleRate,
		samples:    make(chan []byte, 64),
		logger:     m.logger,
	}

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatS16
	deviceCfg.Capture.Channels = 1
	deviceCfg.SampleRate = uint32(m.sampleRate)

	device, err := malgo.InitDevice(mctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: c.onData,
	})
	if err != nil {
		c.freeContext()
		return nil, fmt.Errorf("initializing capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		c.freeContext()
		return nil, fmt.Errorf("starting capture device: %w", err)
	}
	c.device = device

	m.logger.Info("Microphone acquired", Int("sample_rate", m.sampleRate))
	return c, nil
}

// localCapture is a running malgo capture device
type localCapture struct {
	mctx       *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	meter      LevelMeter
	logger     *logger.Logger

	mu      sync.Mutex
	closed  bool
	dropped int
	samples chan []byte
}

func (c *localCapture) Level() float64 {
	return c.meter.Level()
}

func (c *localCapture) Samples() <-chan []byte {
	return c.samples
}

func (c *localCapture) SampleRate() int {
	return c.sampleRate
}

// onData is the malgo callback invoked when audio data is available.
// pSample holds frameCount 16-bit mono frames.
func (c *localCapture) onData(_, pSample []byte, frameCount uint32) {
	n := int(frameCount) * 2
	if n > len(pSample) {
		n = len(pSample)
	}
	chunk := make([]byte, n)
	copy(chunk, pSample[:n])

	c.meter.Update(chunk)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.samples <- chunk:
	default:
		// Consumer is behind; drop rather than block the audio thread
		c.dropped++
	}
}

// Close stops the device and releases the audio context
func (c *localCapture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	dropped := c.dropped
	close(c.samples)
	c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.meter.Reset()

	if dropped > 0 {
		c.logger.Warn("Dropped audio chunks while capturing", Int("chunks", dropped))
	}
	c.logger.Info("Microphone released")

	return c.freeContext()
}

func (c *localCapture) freeContext() error {
	if c.mctx == nil {
		return nil
	}
	err := c.mctx.Uninit()
	c.mctx.Free()
	c.mctx = nil
	if err != nil {
		return fmt.Errorf("uninitializing audio context: %w", err)
	}
	return nil
}
