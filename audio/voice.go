package audio

import "math"

// voice is a single sounding note: a sine oscillator shaped by an envelope.
// The phase is derived from the absolute sample count instead of a wrapped
// accumulator, which drifts slowly for notes held a very long time.
type voice struct {
	key     int
	gain    float64
	step    float64 // radians per sample
	elapsed int
	env     envelope
}

// newVoice creates a voice for key. attack and release are in seconds; the
// release is shortened for louder notes.
func newVoice(table *PitchTable, key, velocity int, attack, release float64) *voice {
	gain := Gain(velocity)
	rate := table.SampleRate()
	return &voice{
		key:  key,
		gain: gain,
		step: table.Step(key),
		env: envelope{
			attack:  int(math.Round(attack * rate)),
			release: max(1, int(math.Round(release*rate/gain))),
		},
	}
}

// next returns the voice's current sample and advances its clock by one.
func (v *voice) next() float64 {
	if v.state() == stateFinished {
		return 0
	}
	sample := v.gain * math.Sin(v.step*float64(v.elapsed)) * v.env.value(v.elapsed)
	v.elapsed++
	return sample
}

func (v *voice) release() bool { return v.env.startRelease(v.elapsed) }

func (v *voice) state() envelopeState { return v.env.state(v.elapsed) }
