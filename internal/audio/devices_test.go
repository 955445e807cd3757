// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

var fakeInfos = []*portaudio.DeviceInfo{
	{Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000, HostApi: &portaudio.HostApiInfo{Name: "Core Audio"}},
	{Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 44100,
		DefaultLowInputLatency: 5 * time.Millisecond, DefaultHighInputLatency: 20 * time.Millisecond},
	{Name: "Headset", MaxInputChannels: 1, MaxOutputChannels: 2, DefaultSampleRate: 16000},
}

// mockDevices swaps the PortAudio device seams for the duration of a test.
func mockDevices(t *testing.T, infos []*portaudio.DeviceInfo, err error) {
	t.Helper()
	origDevices := paLibDevicesFunc
	origDefault := paLibDefaultInputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc = origDevices
		paLibDefaultInputDeviceFunc = origDefault
	})
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return infos, err }
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if len(infos) < 2 {
			return nil, fmt.Errorf("mock default input error")
		}
		return infos[1], nil
	}
}

func TestHostDevices(t *testing.T) {
	mockDevices(t, fakeInfos, nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != len(fakeInfos) {
		t.Fatalf("got %d devices, want %d", len(devices), len(fakeInfos))
	}
	for i, d := range devices {
		if d.ID != i || d.Name != fakeInfos[i].Name {
			t.Errorf("device %d = %+v", i, d)
		}
	}
	if devices[0].HostAPI != "Core Audio" || devices[1].HostAPI != "" {
		t.Errorf("host API names = %q, %q", devices[0].HostAPI, devices[1].HostAPI)
	}

	kinds := []string{"Output", "Input", "Input/Output"}
	for i, want := range kinds {
		if got := devices[i].Kind(); got != want {
			t.Errorf("device %d Kind() = %q, want %q", i, got, want)
		}
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	mockDevices(t, nil, fmt.Errorf("mock error"))

	if _, err := HostDevices(); err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
	if _, err := InputDevices(); err == nil {
		t.Error("expected InputDevices to propagate the error")
	}
}

func TestInputDevices(t *testing.T) {
	mockDevices(t, fakeInfos, nil)

	inputs, err := InputDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 2 || inputs[0].ID != 1 || inputs[1].ID != 2 {
		t.Errorf("InputDevices() = %+v", inputs)
	}
}

func TestInputDevice(t *testing.T) {
	mockDevices(t, fakeInfos, nil)

	tests := []struct {
		name     string
		id       int
		wantName string
		substr   string
	}{
		{"Default", -1, "USB Mic", ""},
		{"Valid input", 2, "Headset", ""},
		{"Negative ID", -2, "", "invalid device ID"},
		{"Too high ID", 13, "", "invalid device ID"},
		{"Non-input device", 0, "", "does not support input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := InputDevice(tt.id)
			if tt.substr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.substr) {
					t.Errorf("InputDevice(%d) error = %v, want %q", tt.id, err, tt.substr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InputDevice(%d) error: %v", tt.id, err)
			}
			if dev.Name != tt.wantName {
				t.Errorf("InputDevice(%d) = %q, want %q", tt.id, dev.Name, tt.wantName)
			}
		})
	}
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	mockDevices(t, fakeInfos[:1], nil)

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	mockDevices(t, fakeInfos, nil)

	var out bytes.Buffer
	if err := ListDevices(&out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"[0] Speakers (Output)",
		"[1] USB Mic (Input)",
		"Default sample rate: 44100 Hz",
		"Latency: Low=5.00ms, High=20.00ms",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	mockDevices(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("expected empty slice, got %v", devices)
	}
}

func TestPortAudioNotInitialized(t *testing.T) {
	mockDevices(t, nil, fmt.Errorf("PortAudio not initialized"))

	devices, err := paDevices()
	if err == nil || !strings.Contains(err.Error(), "PortAudio not initialized") {
		t.Errorf("expected 'PortAudio not initialized' error, got %v", err)
	}
	if devices != nil {
		t.Errorf("expected devices to be nil on error, got %v", devices)
	}
}
