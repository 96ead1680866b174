package notifier

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/777genius/audio-output-switcher/internal/config"
	"github.com/777genius/audio-output-switcher/internal/device"
	"github.com/777genius/audio-output-switcher/internal/logging"
)

const (
	appName = "Audio Output Switcher"
	title   = "Audio output"
	// freedesktop icon name, resolved by the notification daemon
	icon = "audio-speakers"
)

type notifyFunc func(title, message, icon string) error

// Notifier sends desktop notifications about sink switches
type Notifier struct {
	enabled bool
	notify  notifyFunc
}

// New creates a notifier from the notify settings
func New(s *config.Settings) *Notifier {
	return &Notifier{
		enabled: s.Notify.Enabled,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Switched announces that d is now the default output
func (n *Notifier) Switched(d device.Device) error {
	if !n.enabled {
		logging.Debug("Desktop notifications disabled, skipping")
		return nil
	}

	// beeep.AppName is global; restore it for other callers in the process
	originalAppName := beeep.AppName
	beeep.AppName = appName
	defer func() {
		beeep.AppName = originalAppName
	}()

	message := fmt.Sprintf("Switched to %s", d.DisplayName)
	if err := n.notify(title, message, icon); err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", err)
	}

	logging.Debug("Desktop notification sent: %s", message)
	return nil
}

// Close is a no-op (kept for interface compatibility)
func (n *Notifier) Close() error {
	return nil
}
