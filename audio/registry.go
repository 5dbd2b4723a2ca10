package audio

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrPoisoned is returned by every Registry operation once a panic has
// happened while the registry lock was held.
var ErrPoisoned = errors.New("voice registry poisoned")

// Registry holds the currently sounding voices, at most one per key. It is
// shared between the midi thread, which attaches and releases voices, and the
// audio thread, which advances and prunes them.
type Registry struct {
	mu       sync.Mutex
	voices   map[int]*voice
	expired  []int
	poisoned bool

	table   *PitchTable
	attack  *atomic.Value
	release *atomic.Value
	level   *atomic.Value
}

// NewRegistry registers the envelope and level properties on props and
// returns an empty registry.
func NewRegistry(table *PitchTable, props *Props) *Registry {
	return &Registry{
		voices:  make(map[int]*voice, numKeys),
		expired: make([]int, 0, numKeys),
		table:   table,
		attack:  props.MustRegister(PropEnvAttack, setAttack, 0.01),
		release: props.MustRegister(PropEnvRelease, setRelease, 0.3),
		level:   props.MustRegister(PropLevel, setLevel, 0.1),
	}
}

// do runs f with the lock held. A panic in f poisons the registry.
func (r *Registry) do(f func()) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		return ErrPoisoned
	}
	defer func() {
		if p := recover(); p != nil {
			r.poisoned = true
			err = fmt.Errorf("%w: %v", ErrPoisoned, p)
		}
	}()
	f()
	return nil
}

// Attach starts a new voice for key, replacing any voice already sounding
// for that key. Keys outside 0-127 are ignored.
func (r *Registry) Attach(key, velocity int) error {
	if key < 0 || key >= numKeys {
		return nil
	}
	v := newVoice(r.table, key, velocity, r.attack.Load().(float64), r.release.Load().(float64))
	return r.do(func() {
		r.voices[key] = v
	})
}

// BeginRelease moves the voice for key into its release stage. Unknown keys
// and voices that are already releasing are left alone.
func (r *Registry) BeginRelease(key int) error {
	return r.do(func() {
		if v, ok := r.voices[key]; ok {
			v.release()
		}
	})
}

// ReleaseAll releases every sounding voice.
func (r *Registry) ReleaseAll() error {
	return r.do(func() {
		for _, v := range r.voices {
			v.release()
		}
	})
}

// AdvanceAndMix advances every voice by one sample and returns their sum,
// attenuated by the level property. Voices whose release has completed are
// removed after the pass.
func (r *Registry) AdvanceAndMix() (float64, error) {
	var sum float64
	err := r.do(func() {
		for key, v := range r.voices {
			sum += v.next()
			if v.state() == stateFinished {
				r.expired = append(r.expired, key)
			}
		}
		for _, key := range r.expired {
			delete(r.voices, key)
		}
		r.expired = r.expired[:0]
	})
	if err != nil {
		return 0, err
	}
	return sum * r.level.Load().(float64), nil
}

// Len returns the number of voices in the registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

// VoiceInfo describes a voice at the time of a Snapshot.
type VoiceInfo struct {
	Key     int
	Gain    float64
	Elapsed int
	Stage   string
}

// Snapshot returns the registry's voices ordered by key.
func (r *Registry) Snapshot() ([]VoiceInfo, error) {
	var infos []VoiceInfo
	err := r.do(func() {
		infos = make([]VoiceInfo, 0, len(r.voices))
		for _, v := range r.voices {
			infos = append(infos, VoiceInfo{
				Key:     v.key,
				Gain:    v.gain,
				Elapsed: v.elapsed,
				Stage:   v.state().String(),
			})
		}
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, err
}
