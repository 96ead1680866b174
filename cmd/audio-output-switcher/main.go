package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/777genius/audio-output-switcher/internal/audio"
	"github.com/777genius/audio-output-switcher/internal/config"
	"github.com/777genius/audio-output-switcher/internal/device"
	"github.com/777genius/audio-output-switcher/internal/exitcode"
	"github.com/777genius/audio-output-switcher/internal/logging"
	"github.com/777genius/audio-output-switcher/internal/notifier"
	"github.com/777genius/audio-output-switcher/internal/sink"
	"github.com/777genius/audio-output-switcher/internal/switcher"
)

const version = "1.0.0"

type chimePlayer interface {
	Play(path string) error
	Close() error
}

// deps holds everything that touches the host, so tests can replace it
type deps struct {
	getenv             func(string) string
	findSettings       func() (string, bool)
	defaultDevicesPath func() (string, error)
	logPath            func() (string, error)
	checkDependencies  func(backend string) error
	newServer          func(backend string) (sink.Server, error)
	newChime           func(volume float64) (chimePlayer, error)
	journal            bool
}

func defaultDeps() deps {
	return deps{
		getenv:             os.Getenv,
		findSettings:       config.FindSettingsFile,
		defaultDevicesPath: config.DefaultDevicesPath,
		logPath:            logging.DefaultPath,
		checkDependencies:  sink.CheckDependencies,
		newServer:          sink.New,
		newChime: func(volume float64) (chimePlayer, error) {
			p, err := audio.NewPlayer(volume)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		journal: true,
	}
}

type options struct {
	change      bool
	view        bool
	list        bool
	devicesFile string
}

func main() {
	os.Exit(execute(os.Args[1:], defaultDeps(), os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code
func execute(args []string, d deps, stdout, stderr io.Writer) int {
	cmd, ran := newRootCmd(d, stdout)
	// cobra falls back to os.Args on nil
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil && !*ran {
		// flag, argument and flag-group errors all happen before RunE
		err = &exitcode.UsageError{Err: err}
	}
	if err == nil {
		return exitcode.OK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	code := exitcode.FromError(err)
	if code == exitcode.Usage {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.Name())
	}
	return code
}

func newRootCmd(d deps, stdout io.Writer) (*cobra.Command, *bool) {
	var opts options
	ran := new(bool)

	cmd := &cobra.Command{
		Use:   "audio-output-switcher",
		Short: "View or cycle the default audio output",
		Long: `Views or cycles the default sink of a PulseAudio or PipeWire server.

Devices are taken from the server in its own order. A devices file
(JSON array of {"device_name", "sink_name"} objects) renames devices and,
when it has entries, restricts the rotation to the sinks it matches.
Without --devices-file the per-user file is used and created if absent.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*ran = true
			return run(cmd, opts, d, stdout)
		},
	}
	cmd.SetOut(stdout)

	flags := cmd.Flags()
	flags.BoolVarP(&opts.change, "change", "c", false, "Switch to the next device in rotation")
	flags.BoolVarP(&opts.view, "view", "v", false, "Print the current device name")
	flags.BoolVarP(&opts.list, "list", "l", false, "Print every device in rotation")
	flags.StringVarP(&opts.devicesFile, "devices-file", "f", "", "Devices file to use instead of the per-user one")
	flags.String("backend", sink.BackendPactl, "Audio server backend: pactl or native")
	flags.Bool("notify", false, "Send a desktop notification after switching")
	flags.String("chime", "", "Sound file to play after switching")
	flags.Float64("volume", 1.0, "Chime volume (0.0 to 1.0)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log file format: text or json")

	cmd.MarkFlagsMutuallyExclusive("change", "view")
	cmd.MarkFlagsOneRequired("change", "view", "list")

	return cmd, ran
}

func run(cmd *cobra.Command, opts options, d deps, stdout io.Writer) error {
	settings, err := loadSettings(cmd, d)
	if err != nil {
		return err
	}

	initLogging(settings, d)
	defer logging.Close()

	logging.Debug("=== Invoked: change=%t view=%t list=%t backend=%s ===",
		opts.change, opts.view, opts.list, settings.Backend)

	if err := d.checkDependencies(settings.Backend); err != nil {
		return err
	}

	overrides, err := loadOverrides(opts.devicesFile, d)
	if err != nil {
		return err
	}

	server, err := d.newServer(settings.Backend)
	if err != nil {
		return err
	}

	var chime chimePlayer
	if opts.change && settings.Chime.Path != "" {
		if chime, err = d.newChime(settings.Chime.Volume); err != nil {
			logging.Warn("Chime disabled: %v", err)
			chime = nil
		}
	}

	handler := switcher.NewHandler(switcher.Options{
		Server:    server,
		Overrides: overrides,
		Notifier:  notifier.New(settings),
		Chime:     chime,
		ChimePath: settings.Chime.Path,
		Out:       stdout,
	})

	err = handler.Run(switcher.Actions{
		List:   opts.list,
		View:   opts.view,
		Change: opts.change,
	})
	if err != nil {
		logging.Error("%v", err)
	}
	return err
}

// loadSettings applies settings.toml, then AOS_* variables, then flags
func loadSettings(cmd *cobra.Command, d deps) (*config.Settings, error) {
	path, _ := d.findSettings()

	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if err := settings.ApplyEnv(d.getenv); err != nil {
		return nil, err
	}
	settings.ApplyFlags(cmd.Flags())

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// initLogging never fails the run: without a usable log file the logger
// keeps the journal, or discards records
func initLogging(settings *config.Settings, d deps) {
	path, err := d.logPath()
	if err != nil {
		path = ""
	}

	// a log file failure is already reported through the remaining handlers
	_, _ = logging.InitLogger(logging.Config{
		Level:   settings.Logging.Level,
		Format:  settings.Logging.Format,
		Path:    path,
		Journal: d.journal,
	})
}

// loadOverrides reads the devices file named on the command line, or the
// per-user one (seeding it on first run)
func loadOverrides(devicesFile string, d deps) ([]device.Device, error) {
	if devicesFile != "" {
		devices, err := config.LoadDevicesFile(devicesFile)
		if err != nil {
			return nil, err
		}
		logging.Debug("Loaded %d entries from %s", len(devices), devicesFile)
		return config.Overrides(devices), nil
	}

	path, err := d.defaultDevicesPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate devices file: %w", err)
	}
	devices, err := config.LoadOrSeed(path)
	if err != nil {
		return nil, err
	}
	logging.Debug("Loaded %d entries from %s", len(devices), path)
	return config.Overrides(devices), nil
}
