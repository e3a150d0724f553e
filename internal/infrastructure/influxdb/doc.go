// Package influxdb records light telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Each accepted
// device report becomes a light_state point and each published command a
// light_command point, both tagged with the device name. The Client
// satisfies server.Recorder.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Device.Name)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Write failures are delivered asynchronously to the SetOnError callback.
// Connection and health check errors are returned directly.
package influxdb
