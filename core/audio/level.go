package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// LevelMeter holds the most recent amplitude reading of a live audio stream.
// Writers update it from the capture callback, readers (the voice activity
// detector) sample it on their own cadence. It never blocks either side.
type LevelMeter struct {
	level atomic.Uint64
}

func NewLevelMeter() *LevelMeter { return &LevelMeter{} }

// Update computes the normalized RMS energy of a chunk of audio and stores it
// as the current level. Chunks that are too short to contain a full sample
// are ignored.
func (m *LevelMeter) Update(chunk []byte, encodingInfo EncodingInfo) {
	if m == nil || len(chunk) < encodingInfo.Format.ByteSize() {
		return
	}

	m.level.Store(math.Float64bits(RMS(chunk, encodingInfo)))
}

// Level returns the most recently stored amplitude, normalized to [0, 1].
func (m *LevelMeter) Level() float64 {
	if m == nil {
		return 0
	}

	return math.Float64frombits(m.level.Load())
}

// RMS computes the root-mean-square energy of a chunk of audio, normalized so
// full-scale samples map to 1.0.
func RMS(chunk []byte, encodingInfo EncodingInfo) float64 {
	switch encodingInfo.Format.ByteSize() {
	case 2:
		samples := len(chunk) / 2
		if samples == 0 {
			return 0
		}

		var sum float64
		for i := 0; i+1 < len(chunk); i += 2 {
			sample := float64(int16(binary.LittleEndian.Uint16(chunk[i:]))) / math.MaxInt16
			sum += sample * sample
		}
		return math.Sqrt(sum / float64(samples))

	case 1:
		var sum float64
		for _, b := range chunk {
			sample := (float64(b) - 128) / 128
			sum += sample * sample
		}
		return math.Sqrt(sum / float64(len(chunk)))
	}

	return 0
}
