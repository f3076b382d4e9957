package utils

import (
	"fmt"
	"github.com/notargets/gocca"
	"strings"
)

// DeviceProperties maps a backend mode name to its OCCA device properties
var DeviceProperties = map[string]string{
	"OpenMP": `{"mode": "OpenMP"}`,
	"CUDA":   `{"mode": "CUDA", "device_id": 0}`,
	"Serial": `{"mode": "Serial"}`,
}

// DefaultModes is the order backends are tried in, parallel first
var DefaultModes = []string{"OpenMP", "CUDA", "Serial"}

// TryCreateDevice returns the first device that can be created from modes,
// or DefaultModes when none are given
func TryCreateDevice(modes ...string) (*gocca.OCCADevice, error) {
	if len(modes) == 0 {
		modes = DefaultModes
	}
	var failed []string
	for _, mode := range modes {
		props, ok := DeviceProperties[mode]
		if !ok {
			return nil, fmt.Errorf("unknown device mode %q", mode)
		}
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
		failed = append(failed, fmt.Sprintf("%s: %v", mode, err))
	}
	return nil, fmt.Errorf("no device available (%s)", strings.Join(failed, "; "))
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	device, err := TryCreateDevice()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
