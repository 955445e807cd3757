// SPDX-License-Identifier: MIT
/*
Package audio provides the frame sources that feed the meter.

- StreamSource reads mono frames from a PortAudio input device
- FileSource replays a WAV file, optionally at its own sample rate
- Recorder tees live frames into a 32-bit WAV file

Every source delivers left-justified signed 32-bit samples, the format a
24-bit I2S or USB microphone produces.
*/
package audio

import (
	"fmt"
	"io"

	"ledvu/internal/config"

	"github.com/gordonklaus/portaudio"
)

// Function variables to allow mocking in tests.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paDevicesFunc               = paDevices
)

// Device is a host audio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// IsInput reports whether the device can capture.
func (d Device) IsInput() bool { return d.MaxInputChannels > 0 }

// Kind returns "Input", "Output" or "Input/Output".
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	}
	return ""
}

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// HostDevices returns every device PortAudio reports, indexed by ID.
// PortAudio must be initialized.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		}
		if info.HostApi != nil {
			devices[i].HostAPI = info.HostApi.Name
		}
	}
	return devices, nil
}

// InputDevices filters HostDevices down to capture devices.
func InputDevices() ([]Device, error) {
	devices, err := HostDevices()
	if err != nil {
		return nil, err
	}
	inputs := devices[:0]
	for _, d := range devices {
		if d.IsInput() {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// InputDevice resolves deviceID to a PortAudio device. config.MinDeviceID
// (-1) selects the system default input.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return device, nil
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	device := devices[deviceID]
	if device.MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, device.Name)
	}
	return device, nil
}

// ListDevices writes a description of every device to w.
func ListDevices(w io.Writer) error {
	devices, err := paDevicesFunc()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")
	for i, info := range devices {
		d := Device{MaxInputChannels: info.MaxInputChannels, MaxOutputChannels: info.MaxOutputChannels}
		fmt.Fprintf(w, "[%d] %s (%s)\n", i, info.Name, d.Kind())
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n", info.MaxInputChannels, info.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", info.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n",
			info.DefaultLowInputLatency.Seconds()*1000,
			info.DefaultHighInputLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}
	return nil
}

func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}
