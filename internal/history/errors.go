package history

import "errors"

var (
	// ErrDisabled indicates history recording is turned off in config.
	ErrDisabled = errors.New("history recording is disabled")

	// ErrConnectionFailed indicates the InfluxDB server could not be reached.
	ErrConnectionFailed = errors.New("influxdb connection failed")

	// ErrNotConnected indicates an operation on a closed recorder.
	ErrNotConnected = errors.New("not connected to influxdb")
)
