package midi

import (
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadFile loads the channel messages of a standard midi file, positioned in
// samples at the given rate.
func ReadFile(path string, sampleRate float64) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	events, err := Read(f, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return events, nil
}

// Read is like ReadFile but reads the file from r.
func Read(r io.Reader, sampleRate float64) ([]Event, error) {
	var events []Event
	tracks := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		if !ev.Message.IsPlayable() {
			return
		}
		pos := math.Round(float64(ev.AbsMicroSeconds) * sampleRate / 1e6)
		events = append(events, Event{
			Pos: int(pos),
			Msg: append([]byte(nil), ev.Message...),
		})
	})
	if err := tracks.Error(); err != nil {
		return nil, err
	}
	return events, nil
}
