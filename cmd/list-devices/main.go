// ABOUTME: CLI tool to list the audio server's sinks and their derived short names.
// ABOUTME: Used to find sink_name values for the devices file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/777genius/audio-output-switcher/internal/config"
	"github.com/777genius/audio-output-switcher/internal/device"
	"github.com/777genius/audio-output-switcher/internal/exitcode"
	"github.com/777genius/audio-output-switcher/internal/sink"
)

// newServer is replaced in tests
var newServer = func(backend string) (sink.Server, error) {
	if err := sink.CheckDependencies(backend); err != nil {
		return nil, err
	}
	return sink.New(backend)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("list-devices", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	backend := flags.String("backend", sink.BackendPactl, "Audio server backend: pactl or native")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitcode.OK
		}
		return exitcode.Usage
	}

	server, err := newServer(*backend)
	if err != nil {
		fmt.Fprintf(stderr, "Error connecting to audio server: %v\n", err)
		return exitcode.FromError(err)
	}
	defer server.Close()

	devicesPath, _ := config.DefaultDevicesPath()
	if err := listDevices(stdout, server, devicesPath); err != nil {
		fmt.Fprintf(stderr, "Error listing sinks: %v\n", err)
		return exitcode.FromError(err)
	}
	return exitcode.OK
}

func listDevices(w io.Writer, server sink.Server, devicesPath string) error {
	sinks, current, err := sink.Discover(server)
	if err != nil {
		return err
	}

	if len(sinks) == 0 {
		fmt.Fprintln(w, "No audio sinks found.")
		return nil
	}

	fmt.Fprintln(w, "Available audio sinks:")
	fmt.Fprintln(w)

	for i, d := range sinks {
		defaultMarker := ""
		if d.SinkName == current {
			defaultMarker = " (default)"
		}

		short, err := device.ShortName(d.SinkName)
		if err != nil {
			short = err.Error()
		}
		fmt.Fprintf(w, "  %d: %s%s\n", i, d.SinkName, defaultMarker)
		fmt.Fprintf(w, "     short name: %s\n", short)
	}

	fmt.Fprintln(w)
	if devicesPath != "" {
		fmt.Fprintf(w, "To rename or restrict devices, add to %s:\n", devicesPath)
	} else {
		fmt.Fprintln(w, "To rename or restrict devices, add to devices.json:")
	}
	fmt.Fprintln(w, `  {"device_name": "NAME", "sink_name": "PART_OF_SINK_NAME"}`)
	return nil
}
