package audio

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewPitchTable(DefaultSampleRate), NewProps())
}

func advance(t *testing.T, r *Registry, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := r.AdvanceAndMix(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRegistryAttackOutput(t *testing.T) {
	r := newTestRegistry()
	if err := r.Attach(69, 100); err != nil {
		t.Fatal(err)
	}
	attack := r.voices[69].env.attack
	if want, got := 480, attack; want != got {
		t.Fatalf("wrong attack length: want %v, got %v", want, got)
	}

	step := 2 * math.Pi * 440 / DefaultSampleRate
	for n := 0; n < attack; n++ {
		got, err := r.AdvanceAndMix()
		if err != nil {
			t.Fatal(err)
		}
		want := 0.1 * Gain(100) * math.Sin(step*float64(n)) * float64(n) / float64(attack)
		if math.Abs(want-got) > 1e-12 {
			t.Fatalf("sample %d: want %v, got %v", n, want, got)
		}
	}
	if want, got := "sustain", r.voices[69].state().String(); want != got {
		t.Errorf("wrong state after attack: want %v, got %v", want, got)
	}
}

func TestRegistryReplacesVoice(t *testing.T) {
	r := newTestRegistry()
	if err := r.Attach(60, 80); err != nil {
		t.Fatal(err)
	}
	advance(t, r, 100)
	if err := r.Attach(60, 40); err != nil {
		t.Fatal(err)
	}
	if want, got := 1, r.Len(); want != got {
		t.Fatalf("wrong number of voices: want %v, got %v", want, got)
	}
	v := r.voices[60]
	if want, got := Gain(40), v.gain; want != got {
		t.Errorf("wrong gain: want %v, got %v", want, got)
	}
	if want, got := 0, v.elapsed; want != got {
		t.Errorf("clock not reset: want %v, got %v", want, got)
	}
}

func TestRegistryReleaseIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	if err := r.Attach(64, 100); err != nil {
		t.Fatal(err)
	}
	advance(t, r, 1000)
	if err := r.BeginRelease(64); err != nil {
		t.Fatal(err)
	}
	advance(t, r, 50)
	if err := r.BeginRelease(64); err != nil {
		t.Fatal(err)
	}
	v := r.voices[64]
	if want, got := 1000, v.env.releaseAt; want != got {
		t.Errorf("release start changed: want %v, got %v", want, got)
	}
}

func TestRegistryPrunesReleasedVoice(t *testing.T) {
	r := newTestRegistry()
	if err := r.Attach(72, 127); err != nil {
		t.Fatal(err)
	}
	advance(t, r, 2000)
	if err := r.BeginRelease(72); err != nil {
		t.Fatal(err)
	}
	release := r.voices[72].env.release
	if want, got := int(math.Round(0.3*DefaultSampleRate)), release; want != got {
		t.Errorf("wrong release length for full velocity: want %v, got %v", want, got)
	}

	prev := math.Inf(1)
	for n := 0; n < release-1; n++ {
		env := r.voices[72].env.value(r.voices[72].elapsed)
		if env >= prev {
			t.Fatalf("release not decreasing at sample %d", n)
		}
		prev = env
		advance(t, r, 1)
	}
	if want, got := 1, r.Len(); want != got {
		t.Fatalf("voice removed too early")
	}
	advance(t, r, 1)
	if want, got := 0, r.Len(); want != got {
		t.Fatalf("voice not removed after release: want %v voices, got %v", want, got)
	}
	sample, err := r.AdvanceAndMix()
	if err != nil {
		t.Fatal(err)
	}
	if sample != 0 {
		t.Errorf("expected silence, got %v", sample)
	}
}

func TestRegistrySofterNotesReleaseSlower(t *testing.T) {
	r := newTestRegistry()
	r.Attach(60, 127)
	r.Attach(62, 20)
	if loud, soft := r.voices[60].env.release, r.voices[62].env.release; loud >= soft {
		t.Errorf("expected loud release %d to be shorter than soft release %d", loud, soft)
	}
}

func TestRegistryReleaseUnknownKey(t *testing.T) {
	r := newTestRegistry()
	if err := r.BeginRelease(42); err != nil {
		t.Fatal(err)
	}
	if want, got := 0, r.Len(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
	sample, err := r.AdvanceAndMix()
	if err != nil {
		t.Fatal(err)
	}
	if sample != 0 {
		t.Errorf("expected silence, got %v", sample)
	}
}

func TestRegistryIgnoresInvalidKeys(t *testing.T) {
	r := newTestRegistry()
	for _, key := range []int{-1, 128, 1000} {
		if err := r.Attach(key, 100); err != nil {
			t.Fatal(err)
		}
	}
	if want, got := 0, r.Len(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestRegistryLevel(t *testing.T) {
	props := NewProps()
	r := NewRegistry(NewPitchTable(DefaultSampleRate), props)
	if err := props.Set(PropEnvAttack, 0); err != nil {
		t.Fatal(err)
	}
	if err := props.Set(PropLevel, 0.5); err != nil {
		t.Fatal(err)
	}
	r.Attach(69, 127)
	advance(t, r, 100)
	step := 2 * math.Pi * 440 / DefaultSampleRate
	got, err := r.AdvanceAndMix()
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.5 * math.Sin(step*100); math.Abs(want-got) > 1e-12 {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := newTestRegistry()
	for _, key := range []int{67, 60, 64} {
		r.Attach(key, 100)
	}
	advance(t, r, 10)
	r.BeginRelease(64)
	infos, err := r.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 3, len(infos); want != got {
		t.Fatalf("want %v voices, got %v", want, got)
	}
	for i, key := range []int{60, 64, 67} {
		if want, got := key, infos[i].Key; want != got {
			t.Errorf("voice %d: want key %v, got %v", i, want, got)
		}
		if want, got := 10, infos[i].Elapsed; want != got {
			t.Errorf("voice %d: want elapsed %v, got %v", i, want, got)
		}
	}
	if want, got := "release", infos[1].Stage; want != got {
		t.Errorf("want stage %v, got %v", want, got)
	}
}

func TestRegistryReleaseAll(t *testing.T) {
	props := NewProps()
	r := NewRegistry(NewPitchTable(DefaultSampleRate), props)
	props.Set(PropEnvRelease, 0.01)
	for key := 40; key < 80; key++ {
		r.Attach(key, 127)
	}
	if err := r.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	advance(t, r, int(0.01*DefaultSampleRate))
	if want, got := 0, r.Len(); want != got {
		t.Errorf("want %v voices, got %v", want, got)
	}
}

func TestRegistryPoisoned(t *testing.T) {
	r := newTestRegistry()
	r.Attach(60, 100)
	err := r.do(func() { panic("boom") })
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("expected poisoned error, got %v", err)
	}
	if _, err := r.AdvanceAndMix(); !errors.Is(err, ErrPoisoned) {
		t.Errorf("expected poisoned error from AdvanceAndMix, got %v", err)
	}
	if err := r.Attach(61, 100); !errors.Is(err, ErrPoisoned) {
		t.Errorf("expected poisoned error from Attach, got %v", err)
	}
	if err := r.BeginRelease(60); !errors.Is(err, ErrPoisoned) {
		t.Errorf("expected poisoned error from BeginRelease, got %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rnd := rand.New(rand.NewSource(1))
		for n := 0; n < 5000; n++ {
			key := 36 + rnd.Intn(48)
			if rnd.Intn(2) == 0 {
				r.Attach(key, 1+rnd.Intn(127))
			} else {
				r.BeginRelease(key)
			}
		}
	}()
	go func() {
		defer wg.Done()
		mixer := NewMixer(r)
		buf := make([][]float32, 2)
		for i := range buf {
			buf[i] = make([]float32, 64)
		}
		for n := 0; n < 500; n++ {
			mixer.Process(buf)
		}
	}()
	wg.Wait()

	if err := r.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	// the slowest release is for velocity 1
	base := r.release.Load().(float64)
	limit := int(base*DefaultSampleRate/Gain(1)) + 1
	for n := 0; n < limit && r.Len() > 0; n++ {
		advance(t, r, 1)
	}
	if want, got := 0, r.Len(); want != got {
		t.Errorf("want %v voices after release, got %v", want, got)
	}
}
