package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/keytone/audio"
	"github.com/mrdg/keytone/dub"
	"github.com/mrdg/keytone/midi"
)

type env struct {
	voices     *audio.Registry
	props      *audio.Props
	dispatcher *midi.Dispatcher
	out        io.Writer
}

var errQuit = errors.New("quit")

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if n := len(command.Args); n < cmd.minArgs || n > cmd.maxArgs {
			if cmd.minArgs == cmd.maxArgs {
				return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
					cmd.name, cmd.minArgs, n)
			}
			return "", fmt.Errorf("%s: wrong number of arguments: want %v to %v, got %v",
				cmd.name, cmd.minArgs, cmd.maxArgs, n)
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			if err == errQuit {
				return "", err
			}
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

// exec evaluates input and prints its result.
func (e *env) exec(input string) error {
	result, err := e.eval(input)
	if err != nil {
		return err
	}
	if result != "" {
		fmt.Fprintln(e.out, result)
	}
	return nil
}

// repl reads commands until quit or EOF. It returns io.EOF when input ends.
func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return err
		}
		if err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if err := env.exec(line); err == errQuit {
			return nil
		} else if err != nil {
			fmt.Fprintln(env.out, err)
		}
	}
}
