package switcher

import (
	"fmt"
	"io"

	"github.com/777genius/audio-output-switcher/internal/device"
	"github.com/777genius/audio-output-switcher/internal/logging"
	"github.com/777genius/audio-output-switcher/internal/sink"
)

// notifierInterface defines the interface for announcing a switch
type notifierInterface interface {
	Switched(d device.Device) error
	Close() error
}

// chimeInterface defines the interface for the confirmation sound
type chimeInterface interface {
	Play(path string) error
	Close() error
}

// Actions selects what Run does. List runs first when combined.
type Actions struct {
	List   bool
	View   bool
	Change bool
}

// Options configures a Handler
type Options struct {
	Server    sink.Server
	Overrides []device.Device
	// Notifier and Chime are optional
	Notifier  notifierInterface
	Chime     chimeInterface
	ChimePath string
	Out       io.Writer
}

// Handler runs the view, change and list actions against the audio server
type Handler struct {
	server      sink.Server
	overrides   []device.Device
	notifierSvc notifierInterface
	chime       chimeInterface
	chimePath   string
	out         io.Writer
}

// NewHandler creates a new switch handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		server:      opts.Server,
		overrides:   opts.Overrides,
		notifierSvc: opts.Notifier,
		chime:       opts.Chime,
		chimePath:   opts.ChimePath,
		out:         opts.Out,
	}
}

// Devices discovers the live sinks and reconciles them with the overrides.
// It also returns the current default sink.
func (h *Handler) Devices() ([]device.Device, string, error) {
	live, current, err := sink.Discover(h.server)
	if err != nil {
		return nil, "", err
	}
	logging.Debug("Discovered %d sinks, default=%s", len(live), current)

	devices, err := device.Reconcile(live, h.overrides)
	if err != nil {
		return nil, "", err
	}
	logging.Debug("Reconciled %d devices (%d overrides)", len(devices), len(h.overrides))
	return devices, current, nil
}

// Run discovers once and performs the requested actions in order
func (h *Handler) Run(actions Actions) error {
	defer h.close()

	devices, current, err := h.Devices()
	if err != nil {
		return err
	}

	if actions.List {
		h.printList(devices)
	}

	switch {
	case actions.Change:
		_, err = h.change(devices, current)
	case actions.View:
		err = h.view(devices, current)
	}
	return err
}

// View prints the display name of the current default device
func (h *Handler) View() error {
	return h.Run(Actions{View: true})
}

// Change switches to the next device in rotation and returns it
func (h *Handler) Change() (device.Device, error) {
	defer h.close()

	devices, current, err := h.Devices()
	if err != nil {
		return device.Device{}, err
	}
	return h.change(devices, current)
}

// List prints every reconciled device
func (h *Handler) List() error {
	return h.Run(Actions{List: true})
}

func (h *Handler) view(devices []device.Device, current string) error {
	d, err := device.Current(devices, current)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(h.out, d.DisplayName)
	return err
}

func (h *Handler) change(devices []device.Device, current string) (device.Device, error) {
	next, err := device.Next(devices, current)
	if err != nil {
		return device.Device{}, err
	}

	if next.SinkName == current {
		logging.Debug("Only one device in rotation, re-applying %s", current)
	}

	if err := h.server.SetDefaultSink(next.SinkName); err != nil {
		return device.Device{}, err
	}
	logging.Info("Default sink changed: %s -> %s", current, next.SinkName)

	h.announce(next)
	return next, nil
}

func (h *Handler) printList(devices []device.Device) {
	for _, d := range devices {
		fmt.Fprintln(h.out, d.String())
	}
}

// announce sends the optional feedback for a switch. Failures only warn.
func (h *Handler) announce(d device.Device) {
	if h.notifierSvc != nil {
		if err := h.notifierSvc.Switched(d); err != nil {
			logging.Warn("Failed to send notification: %v", err)
		}
	}

	if h.chime != nil && h.chimePath != "" {
		if err := h.chime.Play(h.chimePath); err != nil {
			logging.Warn("Failed to play chime: %v", err)
		}
	}
}

func (h *Handler) close() {
	if h.notifierSvc != nil {
		if err := h.notifierSvc.Close(); err != nil {
			logging.Warn("Failed to close notifier: %v", err)
		}
	}
	if h.chime != nil {
		if err := h.chime.Close(); err != nil {
			logging.Warn("Failed to close chime player: %v", err)
		}
	}
	if err := h.server.Close(); err != nil {
		logging.Warn("Failed to close audio server connection: %v", err)
	}
}
