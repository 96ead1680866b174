package device

import (
	"fmt"
	"strings"
)

// Reconcile merges live sinks with an override list.
//
// Every override whose sink name is contained in a live sink name renames that
// device; when several match, the last one wins. With a non-empty override
// list, live devices matched by no override are dropped. Order follows live,
// and repeated sink names keep only their first occurrence.
func Reconcile(live, overrides []Device) ([]Device, error) {
	result := make([]Device, 0, len(live))
	seen := make(map[string]bool, len(live))

	for _, d := range live {
		if seen[d.SinkName] {
			continue
		}
		seen[d.SinkName] = true

		matched := false
		for _, o := range overrides {
			if strings.Contains(d.SinkName, o.SinkName) {
				d.DisplayName = o.DisplayName
				matched = true
			}
		}

		if len(overrides) > 0 && !matched {
			continue
		}
		result = append(result, d)
	}

	if len(result) == 0 {
		return nil, ErrNoMatchingSinks
	}
	return result, nil
}

// Current returns the device whose sink is currentSink
func Current(devices []Device, currentSink string) (Device, error) {
	i, err := indexOf(devices, currentSink)
	if err != nil {
		return Device{}, err
	}
	return devices[i], nil
}

// Next returns the device after currentSink, wrapping to the first one
func Next(devices []Device, currentSink string) (Device, error) {
	i, err := indexOf(devices, currentSink)
	if err != nil {
		return Device{}, err
	}
	return devices[(i+1)%len(devices)], nil
}

func indexOf(devices []Device, sinkName string) (int, error) {
	if len(devices) == 0 {
		return -1, ErrNoMatchingSinks
	}
	for i, d := range devices {
		if d.SinkName == sinkName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, sinkName)
}
