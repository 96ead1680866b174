// Package sink talks to the audio server: it lists sinks, reads the default
// sink and switches it. Two backends exist, the pactl command-line tool and
// the PulseAudio native protocol.
package sink

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/777genius/audio-output-switcher/internal/device"
)

var (
	// ErrUnavailable is returned when a required executable is missing
	ErrUnavailable = errors.New("required dependency is not installed")
	// ErrExternalTool is returned when the audio server or its tool fails
	ErrExternalTool = errors.New("audio server request failed")
	// ErrUnknownBackend is returned for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown backend")
)

const (
	BackendPactl  = "pactl"
	BackendNative = "native"
)

// Server is the audio server as seen by the switcher
type Server interface {
	ListSinks() ([]string, error)
	DefaultSink() (string, error)
	SetDefaultSink(name string) error
	Close() error
}

// lookPath is replaced in tests
var lookPath = exec.LookPath

// CheckDependencies verifies the executables needed by backend are on PATH
func CheckDependencies(backend string) error {
	switch backend {
	case BackendPactl:
		if _, err := lookPath("pactl"); err != nil {
			return fmt.Errorf("%w: pactl is not installed: %v", ErrUnavailable, err)
		}
		return nil
	case BackendNative:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// New connects to the audio server through the named backend
func New(backend string) (Server, error) {
	switch backend {
	case BackendPactl:
		return NewPactl("pactl"), nil
	case BackendNative:
		return NewNative()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// Discover returns the live sinks as devices, in server order, together with
// the current default sink name
func Discover(s Server) ([]device.Device, string, error) {
	names, err := s.ListSinks()
	if err != nil {
		return nil, "", err
	}

	current, err := s.DefaultSink()
	if err != nil {
		return nil, "", err
	}

	devices := make([]device.Device, 0, len(names))
	for _, name := range names {
		devices = append(devices, device.FromSink(name))
	}
	return devices, current, nil
}
