package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/777genius/audio-output-switcher/internal/device"
)

// AppName names the per-user config and state directories
const AppName = "audio_output_switcher"

const (
	devicesFileName  = "devices.json"
	settingsFileName = "settings.toml"
)

var (
	// ErrConfig marks invalid configuration content
	ErrConfig = errors.New("configuration error")
	// ErrDevicesFileMissing is returned when a user-supplied devices file does not exist
	ErrDevicesFileMissing = errors.New("devices file does not exist")
	// ErrDevicesFileNotRegular is returned when a user-supplied devices path is not a file
	ErrDevicesFileNotRegular = errors.New("device file argument is not a file")
	// ErrDevicesFileEmpty is returned when a devices file holds an empty array
	ErrDevicesFileEmpty = errors.New("devices file is empty")
)

// DefaultDevicesPath returns the per-user devices file location, creating
// its parent directory if needed
func DefaultDevicesPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppName, devicesFileName))
}

// FindSettingsFile returns the path of an existing settings file, searching
// the XDG config directories
func FindSettingsFile() (string, bool) {
	path, err := xdg.SearchConfigFile(filepath.Join(AppName, settingsFileName))
	if err != nil {
		return "", false
	}
	return path, true
}

// LoadDevicesFile loads a devices file named explicitly by the user.
// The path must be a regular file holding a non-empty JSON array.
func LoadDevicesFile(path string) ([]device.Device, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDevicesFileMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat devices file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrDevicesFileNotRegular, path)
	}

	devices, err := readDevices(path)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDevicesFileEmpty, path)
	}
	return devices, nil
}

// LoadOrSeed loads the default devices file. If it does not exist yet it is
// created with a single placeholder entry, which means no override.
func LoadOrSeed(path string) ([]device.Device, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		seed := []device.Device{{}}
		if err := writeDevices(path, seed); err != nil {
			return nil, err
		}
		return seed, nil
	}

	devices, err := readDevices(path)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %w: %s, please delete it", ErrConfig, ErrDevicesFileEmpty, path)
	}
	return devices, nil
}

// Overrides strips placeholder entries. An empty result means no renaming
// and no filtering.
func Overrides(devices []device.Device) []device.Device {
	var overrides []device.Device
	for _, d := range devices {
		if d.IsPlaceholder() {
			continue
		}
		overrides = append(overrides, d)
	}
	return overrides
}

func readDevices(path string) ([]device.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read devices file: %w", err)
	}

	var devices []device.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("%w: failed to parse devices file %s: %w", ErrConfig, path, err)
	}
	return devices, nil
}

func writeDevices(path string, devices []device.Device) error {
	data, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write devices file: %w", err)
	}
	return nil
}
