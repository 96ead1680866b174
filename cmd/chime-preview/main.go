// ABOUTME: CLI tool for previewing the chime played after a switch.
// ABOUTME: Supports MP3, WAV, FLAC, OGG/Vorbis, AIFF formats via malgo audio backend.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/777genius/audio-output-switcher/internal/audio"
)

type player interface {
	Play(path string) error
	Close() error
}

var newPlayer = func(volume float64) (player, error) {
	p, err := audio.NewPlayer(volume)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("chime-preview", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	volume := flags.Float64("volume", 1.0, "Volume level (0.0 to 1.0)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: chime-preview [options] <path-to-audio-file>\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nSupported formats: %s\n\n", strings.Join(audio.SupportedFormats(), " "))
		fmt.Fprintf(stderr, "Examples:\n")
		fmt.Fprintf(stderr, "  chime-preview /usr/share/sounds/freedesktop/stereo/audio-volume-change.oga\n")
		fmt.Fprintf(stderr, "  chime-preview --volume 0.3 ~/sounds/ding.wav\n")
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if !(*volume >= 0.0 && *volume <= 1.0) {
		fmt.Fprintf(stderr, "Error: Volume must be between 0.0 and 1.0 (got %.2f)\n", *volume)
		return 2
	}

	if flags.NArg() < 1 {
		flags.Usage()
		return 2
	}
	soundPath := flags.Arg(0)

	if !slices.Contains(audio.SupportedFormats(), strings.ToLower(filepath.Ext(soundPath))) {
		fmt.Fprintf(stderr, "Error: Unsupported format: %s\n", filepath.Ext(soundPath))
		return 2
	}

	if _, err := os.Stat(soundPath); os.IsNotExist(err) {
		fmt.Fprintf(stderr, "Error: Sound file not found: %s\n", soundPath)
		return 1
	}

	if *volume < 1.0 {
		fmt.Fprintf(stdout, "Playing: %s (volume: %d%%)\n", filepath.Base(soundPath), int(*volume*100))
	} else {
		fmt.Fprintf(stdout, "Playing: %s\n", filepath.Base(soundPath))
	}

	p, err := newPlayer(*volume)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating audio player: %v\n", err)
		return 1
	}
	defer p.Close()

	if err := p.Play(soundPath); err != nil {
		fmt.Fprintf(stderr, "Error playing sound: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Playback completed")
	return 0
}
