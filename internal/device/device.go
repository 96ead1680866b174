package device

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNoMatchingSinks is returned when reconciliation leaves no devices
	ErrNoMatchingSinks = errors.New("no matching sinks found")
	// ErrNotFound is returned when the current default sink is not in the device list
	ErrNotFound = errors.New("current sink not found in device list")
	// ErrMalformedSinkIdentifier is returned when a short name cannot be derived
	ErrMalformedSinkIdentifier = errors.New("malformed sink identifier")
)

// Device is an audio output as shown to the user
type Device struct {
	DisplayName string `json:"device_name"`
	SinkName    string `json:"sink_name"`
}

// IsPlaceholder reports whether d is the empty seed entry
func (d Device) IsPlaceholder() bool {
	return d.SinkName == ""
}

func (d Device) String() string {
	return fmt.Sprintf("Device Name: %s Sink Name: %s", d.DisplayName, d.SinkName)
}

// shortNamePattern captures the token in identifiers shaped like
// <prefix>_<class>.<bus>-<token>[...], e.g.
// alsa_output.pci-0000_00-1f.3.analog-stereo -> 0000
var shortNamePattern = regexp.MustCompile(`^[^_]*_[^_.]*\.[^_.\-]*-([^_.\-]*)`)

// ShortName derives a compact name from a raw sink identifier
func ShortName(sinkName string) (string, error) {
	m := shortNamePattern.FindStringSubmatch(sinkName)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedSinkIdentifier, sinkName)
	}
	return m[1], nil
}

// DisplayName returns the short name of sinkName, or sinkName itself when
// no usable short name can be derived.
func DisplayName(sinkName string) string {
	name, err := ShortName(sinkName)
	if err != nil || name == "" {
		return sinkName
	}
	return name
}

// FromSink builds a Device for a live sink using its derived display name
func FromSink(sinkName string) Device {
	return Device{
		DisplayName: DisplayName(sinkName),
		SinkName:    sinkName,
	}
}
