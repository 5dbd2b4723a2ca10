package audio

import (
	"sync"
	"sync/atomic"
)

// Voices produces one mono sample per call.
type Voices interface {
	AdvanceAndMix() (float64, error)
}

// Mixer fills audio buffers from a set of voices. The same mono sample is
// written to every channel of a frame. After the first error the mixer only
// outputs silence and the error is delivered on Err.
type Mixer struct {
	voices  Voices
	failed  atomic.Bool
	errOnce sync.Once
	errc    chan error
}

func NewMixer(voices Voices) *Mixer {
	return &Mixer{
		voices: voices,
		errc:   make(chan error, 1),
	}
}

// Err returns a channel that receives the mixer's first error.
func (m *Mixer) Err() <-chan error { return m.errc }

// Process fills non-interleaved buffers, one slice per channel.
func (m *Mixer) Process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	for n := range out[0] {
		sample, ok := m.next()
		if !ok {
			for ch := range out {
				clear(out[ch][n:])
			}
			return
		}
		for ch := range out {
			out[ch][n] = sample
		}
	}
}

// ProcessInterleaved fills buf, which holds frames of the given number of channels.
func (m *Mixer) ProcessInterleaved(buf []float32, channels int) {
	if channels <= 0 {
		return
	}
	for n := 0; n+channels <= len(buf); n += channels {
		sample, ok := m.next()
		if !ok {
			clear(buf[n:])
			return
		}
		for ch := 0; ch < channels; ch++ {
			buf[n+ch] = sample
		}
	}
}

func (m *Mixer) next() (float32, bool) {
	if m.failed.Load() {
		return 0, false
	}
	sample, err := m.voices.AdvanceAndMix()
	if err != nil {
		m.fail(err)
		return 0, false
	}
	return float32(sample), true
}

func (m *Mixer) fail(err error) {
	m.failed.Store(true)
	m.errOnce.Do(func() {
		m.errc <- err
	})
}
