package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mrdg/keytone/audio"
	"github.com/mrdg/keytone/dub"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type command struct {
	name    string
	help    string
	run     func(*env, []dub.Node) (string, error)
	minArgs int
	maxArgs int
}

var commands []command

func init() {
	commands = []command{
		{"note", "note <key> [velocity]: play a note", noteCommand, 1, 2},
		{"off", "off <key>: release a note", offCommand, 1, 1},
		{"panic", "panic: release every note", panicCommand, 0, 0},
		{"voices", "voices: list sounding notes", voicesCommand, 0, 0},
		{"set", "set <property> <value>: change a property", setCommand, 2, 2},
		{"get", "get [property]: show properties", getCommand, 0, 1},
		{"preset", "preset <name>: load a preset", presetCommand, 1, 1},
		{"help", "help: show this help", helpCommand, 0, 0},
		{"quit", "quit: stop and exit", quitCommand, 0, 0},
	}
}

const defaultVelocity = 100

func noteCommand(env *env, args []dub.Node) (string, error) {
	key, vel := 0, defaultVelocity
	slots := []interface{}{&key, &vel}
	if err := readArgs(args, slots[:len(args)]...); err != nil {
		return "", err
	}
	if err := checkRange("key", key); err != nil {
		return "", err
	}
	if err := checkRange("velocity", vel); err != nil {
		return "", err
	}
	return "", env.dispatcher.Dispatch(gomidi.NoteOn(0, uint8(key), uint8(vel)))
}

func offCommand(env *env, args []dub.Node) (string, error) {
	var key int
	if err := readArgs(args, &key); err != nil {
		return "", err
	}
	if err := checkRange("key", key); err != nil {
		return "", err
	}
	return "", env.dispatcher.Dispatch(gomidi.NoteOff(0, uint8(key)))
}

func panicCommand(env *env, args []dub.Node) (string, error) {
	return "", env.voices.ReleaseAll()
}

func voicesCommand(env *env, args []dub.Node) (string, error) {
	infos, err := env.voices.Snapshot()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	renderVoices(infos, &buf)
	return strings.TrimRight(buf.String(), "\n"), nil
}

func setCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args[:1], &prop); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case dub.Float:
		return "", env.props.Set(prop, float64(v))
	case dub.Int:
		return "", env.props.Set(prop, int(v))
	default:
		return "", fmt.Errorf("unsupported property value: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (string, error) {
	keys := env.props.Keys()
	if len(args) > 0 {
		var prop string
		if err := readArgs(args, &prop); err != nil {
			return "", err
		}
		keys = []string{prop}
	}
	var lines []string
	for _, k := range keys {
		v, err := env.props.Get(k)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s = %v", k, v))
	}
	return strings.Join(lines, "\n"), nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.props)
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, "  "+cmd.help)
	}
	return strings.Join(lines, "\n"), nil
}

func quitCommand(env *env, args []dub.Node) (string, error) {
	return "", errQuit
}

func checkRange(name string, v int) error {
	if v < 0 || v > 127 {
		return fmt.Errorf("%s out of range 0-127: %d", name, v)
	}
	return nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
