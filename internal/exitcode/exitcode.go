// Package exitcode maps errors to process exit codes. The values follow
// sysexits.h where one fits.
package exitcode

import (
	"errors"

	"github.com/777genius/audio-output-switcher/internal/config"
	"github.com/777genius/audio-output-switcher/internal/device"
	"github.com/777genius/audio-output-switcher/internal/sink"
)

const (
	OK          = 0
	Failure     = 1
	Usage       = 2
	DataErr     = 65
	NoInput     = 66
	Unavailable = 69
	Software    = 70
	Config      = 78
)

// UsageError marks a command-line error
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// FromError returns the exit code for err
func FromError(err error) int {
	var usage *UsageError

	switch {
	case err == nil:
		return OK
	case errors.Is(err, sink.ErrUnavailable):
		return Unavailable
	case errors.Is(err, config.ErrDevicesFileEmpty) && !errors.Is(err, config.ErrConfig):
		return NoInput
	case errors.Is(err, config.ErrConfig), errors.Is(err, device.ErrNoMatchingSinks):
		return Config
	case errors.Is(err, device.ErrNotFound), errors.Is(err, device.ErrMalformedSinkIdentifier):
		return DataErr
	case errors.Is(err, sink.ErrExternalTool):
		return Software
	case errors.As(err, &usage),
		errors.Is(err, config.ErrDevicesFileMissing),
		errors.Is(err, config.ErrDevicesFileNotRegular),
		errors.Is(err, sink.ErrUnknownBackend):
		return Usage
	default:
		return Failure
	}
}
