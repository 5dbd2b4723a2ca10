package audio

type envelopeState int

const (
	stateAttack envelopeState = iota
	stateSustain
	stateRelease
	stateFinished
)

func (s envelopeState) String() string {
	switch s {
	case stateAttack:
		return "attack"
	case stateSustain:
		return "sustain"
	case stateRelease:
		return "release"
	default:
		return "finished"
	}
}

// envelope is a linear attack/sustain/release envelope driven by the owning
// voice's sample clock. Durations are in samples.
type envelope struct {
	attack  int
	release int

	releasing bool
	releaseAt int // elapsed sample count at note-off, valid when releasing
}

func (e *envelope) state(elapsed int) envelopeState {
	switch {
	case e.releasing && elapsed-e.releaseAt >= e.release:
		return stateFinished
	case e.releasing:
		return stateRelease
	case elapsed < e.attack:
		return stateAttack
	default:
		return stateSustain
	}
}

func (e *envelope) value(elapsed int) float64 {
	switch e.state(elapsed) {
	case stateAttack:
		return float64(elapsed) / float64(e.attack)
	case stateSustain:
		return 1.0
	case stateRelease:
		return 1.0 - float64(elapsed-e.releaseAt)/float64(e.release)
	default:
		return 0.
	}
}

// startRelease reports whether the envelope moved into its release stage.
// Once started, a release can't be restarted.
func (e *envelope) startRelease(elapsed int) bool {
	if e.releasing {
		return false
	}
	e.releasing = true
	e.releaseAt = elapsed
	return true
}
