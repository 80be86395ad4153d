package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteActivityEvent records a camera or doorbell event.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - kind: Event kind (ding, motion, on_demand)
//   - doorbotID: Originating device identifier
//   - occurredAt: Event timestamp as reported by the cloud
//
// Example:
//
//	client.WriteActivityEvent("motion", 11, ding.Now.Time)
func (c *Client) WriteActivityEvent(kind string, doorbotID string, occurredAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"activity",
		map[string]string{
			"kind":       kind,
			"doorbot_id": doorbotID,
		},
		map[string]interface{}{
			"count": 1,
		},
		occurredAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteCameraHealth records a camera health snapshot.
//
// Parameters:
//   - doorbotID: Device identifier
//   - batteryPercentage: Battery charge percentage
//   - signalStrength: WiFi signal strength in dBm
func (c *Client) WriteCameraHealth(doorbotID string, batteryPercentage float64, signalStrength float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"camera_health",
		map[string]string{
			"doorbot_id": doorbotID,
		},
		map[string]interface{}{
			"battery_percentage": batteryPercentage,
			"signal_strength":    signalStrength,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAlarmDeviceMetric records a numeric reading from an alarm device,
// such as battery level or signal strength pushed over the hub socket.
//
// Parameters:
//   - locationID: Alarm location the device belongs to
//   - zid: Device identifier within the location
//   - metric: Metric name (e.g. "battery_level")
//   - value: The metric value
func (c *Client) WriteAlarmDeviceMetric(locationID string, zid string, metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"alarm_device",
		map[string]string{
			"location_id": locationID,
			"zid":         zid,
			"metric":      metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
