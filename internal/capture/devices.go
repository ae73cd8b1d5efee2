package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source surfaced to scribe.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// ListDevices returns available Pulse input sources with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("scribe"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves a preferred input term (with fallback) against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Device, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Device{}, err
	}
	return selectFromList(devices, input, fallback)
}

// selectFromList applies selection policy to a pre-fetched device list. The
// preferred term wins when it matches a usable device; otherwise the fallback
// term, then the server default.
func selectFromList(devices []Device, input string, fallback string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, errors.New("no audio input devices found")
	}

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	usable := func(d Device) bool { return d.Available && !d.Muted }

	for _, term := range []string{input, fallback} {
		if term == "" || term == "default" {
			continue
		}
		for _, dev := range devices {
			if deviceMatches(dev, term) && usable(dev) {
				return dev, nil
			}
		}
	}

	for _, dev := range devices {
		if dev.Default {
			if !usable(dev) {
				reason := "unavailable"
				if dev.Muted {
					reason = "muted"
				}
				return Device{}, fmt.Errorf("default audio source %q is %s", dev.ID, reason)
			}
			return dev, nil
		}
	}

	return Device{}, errors.New("default audio source is unavailable")
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
