package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// levelGain scales RMS so normal speech lands in the middle of the 0..100 range
const levelGain = 4.0

// LevelMeter tracks the RMS level of the most recent PCM chunk.
// Update and Level may be called from different goroutines.
type LevelMeter struct {
	bits atomic.Uint64
}

// Update computes the level of a 16-bit little-endian PCM chunk
func (m *LevelMeter) Update(pcm []byte) {
	m.Set(RMSLevel(pcm))
}

// Set stores a level computed elsewhere (e.g. reported by a browser), clamped to 0..100
func (m *LevelMeter) Set(level float64) {
	m.bits.Store(math.Float64bits(clampLevel(level)))
}

// Level returns the last computed level in 0..100
func (m *LevelMeter) Level() float64 {
	return math.Float64frombits(m.bits.Load())
}

// Reset drops the level back to zero
func (m *LevelMeter) Reset() {
	m.bits.Store(0)
}

// RMSLevel returns the scaled RMS level (0..100) of 16-bit little-endian PCM
func RMSLevel(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(n))

	return clampLevel(rms * 100 * levelGain)
}

func clampLevel(level float64) float64 {
	switch {
	case math.IsNaN(level) || level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}
