package sink

import (
	"fmt"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// pulseClient is the subset of *pulse.Client used by Native
type pulseClient interface {
	ListSinks() ([]*pulse.Sink, error)
	DefaultSink() (*pulse.Sink, error)
	RawRequest(cmd proto.RequestArgs, rpl proto.Reply) error
	Close()
}

// Native talks to PulseAudio (or pipewire-pulse) over its native protocol
type Native struct {
	client pulseClient
}

// NewNative connects to the session's audio server
func NewNative() (*Native, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName("audio-output-switcher"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to audio server: %v", ErrExternalTool, err)
	}
	return &Native{client: client}, nil
}

// ListSinks returns sink names in server order
func (n *Native) ListSinks() ([]string, error) {
	sinks, err := n.client.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sinks: %v", ErrExternalTool, err)
	}
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.ID())
	}
	return names, nil
}

// DefaultSink returns the name of the default sink
func (n *Native) DefaultSink() (string, error) {
	s, err := n.client.DefaultSink()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get default sink: %v", ErrExternalTool, err)
	}
	return s.ID(), nil
}

// SetDefaultSink makes name the default sink
func (n *Native) SetDefaultSink(name string) error {
	if err := n.client.RawRequest(&proto.SetDefaultSink{SinkName: name}, nil); err != nil {
		return fmt.Errorf("%w: failed to set default sink %s: %v", ErrExternalTool, name, err)
	}
	return nil
}

// Close disconnects from the audio server
func (n *Native) Close() error {
	n.client.Close()
	return nil
}
