package midi

import (
	"reflect"
	"testing"
)

type played struct {
	offset int
	msg    byte
}

func TestSequencer(t *testing.T) {
	seq := NewSequencer([]Event{
		{Pos: 300, Msg: []byte{3}},
		{Pos: 0, Msg: []byte{1}},
		{Pos: 255, Msg: []byte{2}},
		{Pos: 300, Msg: []byte{4}},
		{Pos: 1024, Msg: []byte{5}},
	})
	if want, got := 1024, seq.Length(); want != got {
		t.Errorf("wrong length: want %v, got %v", want, got)
	}

	var events []played
	record := func(offset int, msg []byte) {
		events = append(events, played{offset, msg[0]})
	}

	seq.Tick(256, record)
	if want := []played{{0, 1}, {255, 2}}; !reflect.DeepEqual(want, events) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, events)
	}

	events = nil
	seq.Tick(256, record)
	if want := []played{{44, 3}, {44, 4}}; !reflect.DeepEqual(want, events) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, events)
	}

	events = nil
	seq.Tick(256, record)
	if len(events) != 0 {
		t.Errorf("wanted zero events, got: %v", events)
	}
	if seq.Done() {
		t.Error("sequencer done too early")
	}

	events = nil
	seq.Tick(256, record)
	seq.Tick(256, record)
	if want := []played{{0, 5}}; !reflect.DeepEqual(want, events) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, events)
	}
	if !seq.Done() {
		t.Error("expected sequencer to be done")
	}
	if want, got := 1280, seq.Pos(); want != got {
		t.Errorf("wrong position: want %v, got %v", want, got)
	}
}

func TestSequencerEmpty(t *testing.T) {
	seq := NewSequencer(nil)
	if !seq.Done() {
		t.Error("empty sequencer should be done")
	}
	if want, got := 0, seq.Length(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}
