package midi

import (
	"fmt"
	"log/slog"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the rtmidi driver
)

// Input is an open midi input port feeding a Dispatcher, optionally
// forwarding every message to an output port.
type Input struct {
	in     drivers.In
	thru   drivers.Out
	stopFn func()
	logger *slog.Logger
}

// Inputs returns the names of the available midi input ports.
func Inputs() []string {
	var names []string
	for _, in := range gomidi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Outputs returns the names of the available midi output ports.
func Outputs() []string {
	var names []string
	for _, out := range gomidi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// Listen opens the input port whose name contains name (case-insensitive) and
// dispatches its messages until Close. When thru is not empty, messages are
// also forwarded to the matching output port.
func Listen(name, thru string, d *Dispatcher, logger *slog.Logger) (*Input, error) {
	if logger == nil {
		logger = slog.Default()
	}
	in, err := findIn(name)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", in.String(), err)
	}
	inp := &Input{in: in, logger: logger}
	if thru != "" {
		out, err := findOut(thru)
		if err != nil {
			inp.closePorts()
			return nil, err
		}
		if err := out.Open(); err != nil {
			inp.closePorts()
			return nil, fmt.Errorf("open %q: %w", out.String(), err)
		}
		inp.thru = out
	}

	stop, err := gomidi.ListenTo(in, inp.handler(d), gomidi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", in.String(), "err", listenErr)
	}))
	if err != nil {
		inp.closePorts()
		return nil, fmt.Errorf("listen %q: %w", in.String(), err)
	}
	inp.stopFn = stop
	logger.Info("midi: connected", "device", in.String())
	return inp, nil
}

func (inp *Input) handler(d *Dispatcher) func(gomidi.Message, int32) {
	return func(msg gomidi.Message, _ int32) {
		if err := d.Dispatch(msg); err != nil {
			inp.logger.Error("midi: dispatch failed", "msg", msg.String(), "err", err)
		}
		if inp.thru != nil {
			if err := inp.thru.Send(msg); err != nil {
				inp.logger.Warn("midi: thru failed", "device", inp.thru.String(), "err", err)
			}
		}
	}
}

func (inp *Input) Name() string { return inp.in.String() }

// Close stops listening and closes the ports and the midi driver.
func (inp *Input) Close() error {
	if inp.stopFn != nil {
		inp.stopFn()
		inp.stopFn = nil
	}
	inp.closePorts()
	drivers.Close()
	inp.logger.Info("midi: closed", "device", inp.in.String())
	return nil
}

func (inp *Input) closePorts() {
	if inp.thru != nil {
		_ = inp.thru.Close()
		inp.thru = nil
	}
	_ = inp.in.Close()
}

// findIn prefers an exact name match over a substring match.
func findIn(name string) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	for _, in := range ins {
		if containsCI(in.String(), name) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("midi input %q not found", name)
}

func findOut(name string) (drivers.Out, error) {
	outs := gomidi.GetOutPorts()
	for _, out := range outs {
		if out.String() == name {
			return out, nil
		}
	}
	for _, out := range outs {
		if containsCI(out.String(), name) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("midi output %q not found", name)
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
