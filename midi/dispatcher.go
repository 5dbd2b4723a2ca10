package midi

import (
	"log/slog"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Voices is the set of sounding notes the dispatcher drives.
type Voices interface {
	Attach(key, velocity int) error
	BeginRelease(key int) error
}

// Dispatcher turns raw midi messages into voice changes. Only note on and
// note off messages are handled; a note on with velocity zero is a note off.
// Everything else, including malformed input, is ignored.
type Dispatcher struct {
	voices Voices
	logger *slog.Logger
}

func NewDispatcher(voices Voices, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{voices: voices, logger: logger}
}

// Dispatch handles a single message. The only errors come from the voices.
func (d *Dispatcher) Dispatch(raw []byte) error {
	if len(raw) < 3 {
		return nil
	}
	msg := gomidi.Message(raw)
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			d.logger.Debug("midi: note off", "ch", ch, "key", key)
			return d.voices.BeginRelease(int(key))
		}
		d.logger.Debug("midi: note on", "ch", ch, "key", key, "vel", vel)
		return d.voices.Attach(int(key), int(vel))
	case msg.GetNoteOff(&ch, &key, &vel):
		d.logger.Debug("midi: note off", "ch", ch, "key", key)
		return d.voices.BeginRelease(int(key))
	}
	return nil
}
