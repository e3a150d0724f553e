package influxdb

import "errors"

// Sentinel errors returned by the telemetry client. Check with errors.Is.
var (
	// ErrNotConnected is returned by writes and health checks after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed means the server could not be reached at Connect.
	// lightsd treats it as "run without telemetry".
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps every asynchronous batch failure handed to the
	// SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
