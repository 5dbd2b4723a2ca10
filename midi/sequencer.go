package midi

import "sort"

// Event is a midi message scheduled at an absolute position in samples.
type Event struct {
	Pos int
	Msg []byte
}

// Sequencer plays back a fixed list of events in buffer-sized steps.
type Sequencer struct {
	events []Event
	next   int // index of the next event to play
	pos    int // total time passed in number of samples
}

func NewSequencer(events []Event) *Sequencer {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })
	return &Sequencer{events: sorted}
}

// Tick calls play for every event falling within the next numSamples samples,
// with the event's offset relative to the start of that window.
func (s *Sequencer) Tick(numSamples int, play func(offset int, msg []byte)) {
	end := s.pos + numSamples
	for ; s.next < len(s.events); s.next++ {
		ev := s.events[s.next]
		if ev.Pos >= end {
			break
		}
		// events scheduled in the past play at the start of the window
		play(max(0, ev.Pos-s.pos), ev.Msg)
	}
	s.pos = end
}

// Done reports whether every event has been played.
func (s *Sequencer) Done() bool { return s.next >= len(s.events) }

// Pos returns the number of samples the sequencer has advanced.
func (s *Sequencer) Pos() int { return s.pos }

// Length returns the position of the last event.
func (s *Sequencer) Length() int {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Pos
}
