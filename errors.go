package inflight

import "errors"

// Device registration errors.
var (
	// ErrInvalidDevice is returned for a device id outside the device table
	// or a configuration without a backend.
	ErrInvalidDevice = errors.New("inflight: invalid device")

	// ErrDeviceRegistered is returned when registering an id that is in use.
	ErrDeviceRegistered = errors.New("inflight: device already registered")

	// ErrDeviceNotRegistered is returned when unregistering an unknown id.
	ErrDeviceNotRegistered = errors.New("inflight: device not registered")
)
