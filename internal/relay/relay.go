// Package relay fans Ring events out to the configured sinks.
//
// It sits between the Ring client packages and the infrastructure
// clients: camera activity from the poller and alarm device pushes from
// hub sessions are translated into MQTT messages and InfluxDB points.
// Either sink may be absent; the relay publishes to whatever it has.
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/ring-relay/internal/alarm"
	"github.com/nerrad567/ring-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/ring-relay/internal/ring"
)

// Publisher is the slice of the MQTT client the relay needs.
type Publisher interface {
	PublishJSON(topic string, value any) error
	PublishJSONRetained(topic string, value any) error
}

// Telemetry is the slice of the InfluxDB client the relay needs.
type Telemetry interface {
	WriteActivityEvent(kind string, doorbotID string, occurredAt time.Time)
	WriteCameraHealth(doorbotID string, batteryPercentage float64, signalStrength float64)
	WriteAlarmDeviceMetric(locationID string, zid string, metric string, value float64)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Relay translates Ring events into sink writes.
//
// Thread Safety: all methods are safe for concurrent use; handlers
// registered on alarm sessions run on their read loop goroutines.
type Relay struct {
	publisher Publisher
	telemetry Telemetry
	topics    mqtt.Topics

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Relay. Either sink may be nil when disabled.
func New(publisher Publisher, telemetry Telemetry) *Relay {
	return &Relay{
		publisher: publisher,
		telemetry: telemetry,
	}
}

// SetLogger sets a logger. If not set, the relay is silent.
func (r *Relay) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

func (r *Relay) getLogger() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}

// HandleDing forwards one camera or doorbell event to the sinks. Wire
// it to the poller with OnActivity.
func (r *Relay) HandleDing(d *ring.Ding) {
	doorbotID, _ := d.DoorbotID.Int64()

	if r.publisher != nil {
		if err := r.publisher.PublishJSON(r.topics.Activity(d.Kind, doorbotID), d); err != nil {
			if logger := r.getLogger(); logger != nil {
				logger.Warn("publishing activity event failed", "kind", d.Kind, "error", err)
			}
		}
	}

	if r.telemetry != nil {
		r.telemetry.WriteActivityEvent(d.Kind, d.DoorbotID.String(), d.Now.Time)
	}
}

// HandleHealth forwards one camera health snapshot to the sinks.
func (r *Relay) HandleHealth(doorbotID int64, h *ring.Health) {
	if r.publisher != nil {
		if err := r.publisher.PublishJSON(r.topics.CameraHealth(doorbotID), h); err != nil {
			if logger := r.getLogger(); logger != nil {
				logger.Warn("publishing camera health failed", "doorbot_id", doorbotID, "error", err)
			}
		}
	}

	if r.telemetry != nil {
		battery, _ := h.BatteryPercentage.Float64()
		signal, _ := h.LatestSignalStrength.Float64()
		r.telemetry.WriteCameraHealth(h.DeviceID.String(), battery, signal)
	}
}

// BindAlarm subscribes the relay to a location's device state pushes.
func (r *Relay) BindAlarm(a *alarm.Alarm) {
	locationID := a.LocationID()
	a.Session().OnDataUpdate(func(msg alarm.Message) {
		r.handleAlarmUpdate(locationID, msg)
	})
}

// handleAlarmUpdate fans one hub push out per device record.
func (r *Relay) handleAlarmUpdate(locationID string, msg alarm.Message) {
	var records []json.RawMessage
	if err := json.Unmarshal(msg.Body, &records); err != nil {
		if logger := r.getLogger(); logger != nil {
			logger.Warn("discarding unparseable device update", "location_id", locationID, "error", err)
		}
		return
	}

	for _, raw := range records {
		data, err := alarm.FlattenRecord(raw)
		if err != nil {
			if logger := r.getLogger(); logger != nil {
				logger.Warn("discarding unparseable device record", "location_id", locationID, "error", err)
			}
			continue
		}
		zid, _ := data["zid"].(string)
		if zid == "" {
			continue
		}

		r.publishDeviceState(locationID, zid, data)
		r.recordDeviceMetrics(locationID, zid, data)
	}
}

// publishDeviceState publishes the record, plus the retained location
// mode when a security panel reports a mode change.
func (r *Relay) publishDeviceState(locationID, zid string, data alarm.DeviceData) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.PublishJSON(r.topics.AlarmDeviceState(locationID, zid), data); err != nil {
		if logger := r.getLogger(); logger != nil {
			logger.Warn("publishing device state failed", "zid", zid, "error", err)
		}
	}

	kind, _ := data["deviceType"].(string)
	mode, hasMode := data["mode"].(string)
	if hasMode && (kind == "" || kind == alarm.KindSecurityPanel) {
		err := r.publisher.PublishJSONRetained(r.topics.AlarmMode(locationID), map[string]string{"mode": mode})
		if err != nil {
			if logger := r.getLogger(); logger != nil {
				logger.Warn("publishing alarm mode failed", "location_id", locationID, "error", err)
			}
		}
	}
}

// recordDeviceMetrics writes numeric readings from the record.
func (r *Relay) recordDeviceMetrics(locationID, zid string, data alarm.DeviceData) {
	if r.telemetry == nil {
		return
	}

	if level, ok := numberField(data, "batteryLevel"); ok {
		r.telemetry.WriteAlarmDeviceMetric(locationID, zid, "battery_level", level)
	}
	if strength, ok := numberField(data, "signalStrength"); ok {
		r.telemetry.WriteAlarmDeviceMetric(locationID, zid, "signal_strength", strength)
	}
}

// numberField extracts a numeric field from a flattened record.
func numberField(data alarm.DeviceData, key string) (float64, bool) {
	n, ok := data[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}
