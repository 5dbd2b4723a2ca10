package audio

import "math"

const (
	twoPi = 2 * math.Pi

	// DefaultSampleRate is used when no rate is configured.
	DefaultSampleRate = 48000

	numKeys = 128
)

// PitchTable maps a midi key number to the phase increment of a sine
// oscillator in radians per sample, tuned to A4 = 440Hz at key 69.
type PitchTable struct {
	sampleRate float64
	steps      [numKeys]float64
}

func NewPitchTable(sampleRate float64) *PitchTable {
	t := &PitchTable{sampleRate: sampleRate}
	for key := range t.steps {
		t.steps[key] = twoPi * midiToFreq(key) / sampleRate
	}
	return t
}

// Step returns the angular frequency for key. Only the low 7 bits of key are used.
func (t *PitchTable) Step(key int) float64 {
	return t.steps[key&0x7f]
}

func (t *PitchTable) SampleRate() float64 { return t.sampleRate }

func midiToFreq(note int) float64 {
	return math.Pow(2, float64(note-69)/12.0) * 440
}
