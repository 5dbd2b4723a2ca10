package main

import (
	"fmt"
	"io"

	"github.com/mrdg/keytone/audio"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func pitchName(key int) string {
	if key < 0 {
		return fmt.Sprintf("?%d", key)
	}
	return fmt.Sprintf("%s%d", noteNames[key%12], (key/12)-1)
}

func renderVoices(voices []audio.VoiceInfo, w io.Writer) {
	if len(voices) == 0 {
		fmt.Fprintln(w, colorize("no voices", colorMagenta))
		return
	}
	for _, v := range voices {
		stage := colorize(fmt.Sprintf("%-8s", v.Stage), stageColor(v.Stage))
		fmt.Fprintf(w, "%3d %-4s gain %.2f %s %d\n", v.Key, pitchName(v.Key), v.Gain, stage, v.Elapsed)
	}
}

func stageColor(stage string) int {
	switch stage {
	case "attack":
		return colorYellow
	case "sustain":
		return colorGreen
	case "release":
		return colorBlue
	default:
		return colorRed
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
