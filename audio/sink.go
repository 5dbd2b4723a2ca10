package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type SinkConfig struct {
	Device     string // case-insensitive substring of the output device name; empty for the default device
	SampleRate float64
	BufferSize int
	Channels   int
}

// Sink streams a source to an audio output device. The source is called from
// portaudio's callback thread.
type Sink struct {
	source Source
	stream *portaudio.Stream
}

func NewSink(cfg SinkConfig, source Source) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	dev, err := outputDevice(cfg.Device)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = cfg.Channels
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.BufferSize

	s := Sink{source: source}
	stream, err := portaudio.OpenStream(params, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open output %q: %w", dev.Name, err)
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	defer portaudio.Terminate()
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}

func (s *Sink) Process(samples [][]float32) {
	s.source.Process(samples)
}

func outputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("default output device: %w", err)
		}
		return dev, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), strings.ToLower(name)) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no audio output matching %q", name)
}

// Outputs returns the names of all devices with output channels.
func Outputs() ([]string, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	defer portaudio.Terminate()
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 {
			names = append(names, dev.Name)
		}
	}
	return names, nil
}
