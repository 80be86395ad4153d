// Package influxdb provides the relay's telemetry sink.
//
// Camera activity, health snapshots, and alarm device readings are written
// to InfluxDB v2 as batched, non-blocking points. Write failures surface
// through the SetOnError callback rather than blocking the event path.
package influxdb
