package tuyable

import "errors"

// Domain-specific errors for the Tuya BLE driver.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeviceNotFound is returned when a scan completes without seeing
	// the requested address.
	ErrDeviceNotFound = errors.New("tuyable: device not found during scan")

	// ErrNotConnected is returned when writing without an attached transport.
	ErrNotConnected = errors.New("tuyable: device transport not connected")

	// ErrCharacteristicNotFound is returned when the Tuya GATT service or
	// its characteristics are missing on the connected device.
	ErrCharacteristicNotFound = errors.New("tuyable: characteristic not found")

	// ErrTruncatedDataPoint is returned when a datapoint record is shorter
	// than its declared length.
	ErrTruncatedDataPoint = errors.New("tuyable: truncated datapoint record")

	// ErrUnknownDataPointType is returned for wire type tags outside the
	// protocol range.
	ErrUnknownDataPointType = errors.New("tuyable: unknown datapoint type")

	// ErrUnencodableType is returned when encoding a datapoint whose type
	// has no wire representation (TypeUnset).
	ErrUnencodableType = errors.New("tuyable: datapoint type has no wire encoding")
)
