package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/mrdg/keytone/audio"
	"github.com/mrdg/keytone/midi"
)

// logger is the package-wide structured logger; defaults to slog.Default().
var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func fatal(err error) {
	logger.Error(err.Error())
	os.Exit(1)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "bounce" {
		initLogger(false)
		if err := bounceCommand(os.Args[2:]); err != nil {
			fatal(err)
		}
		return
	}

	var (
		inPort     = flag.String("in", "", "midi input port, matched by substring; prompts when empty")
		thru       = flag.String("thru", "", "midi output port to forward input to")
		output     = flag.String("out", "", "audio output device, matched by substring")
		rate       = flag.Float64("rate", audio.DefaultSampleRate, "output sample rate")
		bufferSize = flag.Int("buffer", 256, "frames per audio buffer")
		channels   = flag.Int("channels", 2, "output channels")
		preset     = flag.String("preset", "default", "tuning preset: "+strings.Join(audio.Presets(), "|"))
		run        = flag.String("run", "", "file with commands to run at startup")
		list       = flag.Bool("list", false, "list midi and audio ports and exit")
		debug      = flag.Bool("debug", false, "log every note")
	)
	flag.Parse()
	initLogger(*debug)

	if *list {
		if err := listPorts(os.Stdout); err != nil {
			fatal(err)
		}
		return
	}

	var commands []string
	if *run != "" {
		lines, err := readCommands(*run)
		if err != nil {
			fatal(err)
		}
		commands = lines
	}

	props := audio.NewProps()
	voices := audio.NewRegistry(audio.NewPitchTable(*rate), props)
	if err := audio.LoadPreset(*preset, props); err != nil {
		fatal(err)
	}
	mixer := audio.NewMixer(voices)
	dispatcher := midi.NewDispatcher(voices, logger)

	name := *inPort
	if name == "" {
		var err error
		if name, err = promptInput(midi.Inputs()); err != nil {
			fatal(err)
		}
	}
	input, err := midi.Listen(name, *thru, dispatcher, logger)
	if err != nil {
		fatal(err)
	}

	sink, err := audio.NewSink(audio.SinkConfig{
		Device:     *output,
		SampleRate: *rate,
		BufferSize: *bufferSize,
		Channels:   *channels,
	}, mixer)
	if err != nil {
		input.Close()
		fatal(err)
	}
	if err := sink.Start(); err != nil {
		input.Close()
		fatal(err)
	}

	env := &env{
		voices:     voices,
		props:      props,
		dispatcher: dispatcher,
		out:        os.Stdout,
	}
	for _, line := range commands {
		if err := env.exec(line); err != nil {
			input.Close()
			sink.Stop()
			fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- repl(env) }()

	var exitErr error
	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil && err != io.EOF {
			exitErr = err
		}
	case err := <-mixer.Err():
		exitErr = fmt.Errorf("audio stopped: %w", err)
	}

	voices.ReleaseAll()
	input.Close()
	if err := sink.Stop(); err != nil {
		logger.Warn("audio: stop failed", "err", err)
	}
	if exitErr != nil {
		fatal(exitErr)
	}
}

func readCommands(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func listPorts(w io.Writer) error {
	fmt.Fprintln(w, "midi inputs:")
	for i, name := range midi.Inputs() {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	fmt.Fprintln(w, "midi outputs:")
	for i, name := range midi.Outputs() {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	outputs, err := audio.Outputs()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "audio outputs:")
	for i, name := range outputs {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	return nil
}

func promptInput(names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no midi inputs available")
	}
	fmt.Println("available input ports:")
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	rl, err := readline.New("select input port: ")
	if err != nil {
		return "", err
	}
	defer rl.Close()
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return choosePort(names, line)
}

func choosePort(names []string, answer string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return "", fmt.Errorf("not a port number: %q", answer)
	}
	if n < 0 || n >= len(names) {
		return "", fmt.Errorf("port %d out of range 0-%d", n, len(names)-1)
	}
	return names[n], nil
}
