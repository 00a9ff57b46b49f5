// Package history records datapoint updates to InfluxDB for long-term
// trend analysis (battery levels, temperature, CO2).
//
// Recording is optional: when the influxdb config section is disabled,
// Connect returns ErrDisabled and the bridge runs without history. Writes
// are non-blocking and batched by the client library, so a slow or absent
// InfluxDB never stalls BLE notification handling.
package history
