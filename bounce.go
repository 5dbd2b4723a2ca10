package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mrdg/keytone/audio"
	"github.com/mrdg/keytone/midi"
	wav "github.com/youpy/go-wav"
)

type bounceConfig struct {
	sampleRate float64
	channels   int
	bufferSize int
	preset     string
	maxTail    float64 // seconds rendered after the last event while voices are still sounding
}

func bounceCommand(args []string) error {
	fs := flag.NewFlagSet("bounce", flag.ExitOnError)
	var (
		rate     = fs.Float64("rate", audio.DefaultSampleRate, "output sample rate")
		channels = fs.Int("channels", 2, "output channels (1 or 2)")
		preset   = fs.String("preset", "default", "tuning preset")
		tail     = fs.Float64("tail", 10, "max seconds to render after the last event")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: keytone bounce [flags] in.mid out.wav")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("bounce: need an input and an output file")
	}

	events, err := midi.ReadFile(fs.Arg(0), *rate)
	if err != nil {
		return err
	}
	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	err = bounce(events, f, bounceConfig{
		sampleRate: *rate,
		channels:   *channels,
		bufferSize: 256,
		preset:     *preset,
		maxTail:    *tail,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("bounce %s: %w", fs.Arg(0), err)
	}
	logger.Info("bounce: done", "in", fs.Arg(0), "out", fs.Arg(1), "events", len(events))
	return nil
}

type scheduled struct {
	offset int
	msg    []byte
}

// bounce renders events through a fresh engine and writes the result to w as
// a 16-bit wav file.
func bounce(events []midi.Event, w io.Writer, cfg bounceConfig) error {
	if cfg.channels < 1 || cfg.channels > 2 {
		return fmt.Errorf("unsupported channel count: %d", cfg.channels)
	}
	props := audio.NewProps()
	voices := audio.NewRegistry(audio.NewPitchTable(cfg.sampleRate), props)
	if err := audio.LoadPreset(cfg.preset, props); err != nil {
		return err
	}
	mixer := audio.NewMixer(voices)
	dispatcher := midi.NewDispatcher(voices, logger)
	seq := midi.NewSequencer(events)

	var (
		ch      = cfg.channels
		buf     = make([]float32, cfg.bufferSize*ch)
		out     []float32
		pending []scheduled
		end     = seq.Length() + int(cfg.maxTail*cfg.sampleRate)
	)
	for !seq.Done() || (voices.Len() > 0 && seq.Pos() < end) {
		pending = pending[:0]
		seq.Tick(cfg.bufferSize, func(offset int, msg []byte) {
			pending = append(pending, scheduled{offset, msg})
		})
		// render up to each event so note changes land on the right sample
		frame := 0
		for _, ev := range pending {
			mixer.ProcessInterleaved(buf[frame*ch:ev.offset*ch], ch)
			frame = ev.offset
			if err := dispatcher.Dispatch(ev.msg); err != nil {
				return err
			}
		}
		mixer.ProcessInterleaved(buf[frame*ch:], ch)
		select {
		case err := <-mixer.Err():
			return err
		default:
		}
		out = append(out, buf...)
	}
	return writeWAV(w, out, ch, cfg.sampleRate)
}

func writeWAV(w io.Writer, buf []float32, channels int, sampleRate float64) error {
	const scale = 1<<15 - 1 // 16 bit output
	frames := len(buf) / channels
	samples := make([]wav.Sample, frames)
	for i := range samples {
		for c := 0; c < channels; c++ {
			v := math.Max(-1, math.Min(1, float64(buf[i*channels+c])))
			samples[i].Values[c] = int(math.Round(v * scale))
		}
	}
	ww := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), 16)
	return ww.WriteSamples(samples)
}
