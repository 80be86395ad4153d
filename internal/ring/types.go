package ring

import (
	"encoding/json"
	"strconv"
	"time"
)

// Device is the common shape of one doorbell, camera, chime, or base
// station on the account.
type Device struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	LocationID  string          `json:"location_id"`
	BatteryLife json.RawMessage `json:"battery_life"`
}

// BatteryLevel returns the device's battery percentage. The vendor
// reports it as a number for some device kinds and a quoted string for
// others; false means the device reported no usable value.
func (d *Device) BatteryLevel() (float64, bool) {
	raw := string(d.BatteryLife)
	if raw == "" || raw == "null" {
		return 0, false
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	level, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return level, true
}

// Doorbell is a video doorbell; it can start live streams.
type Doorbell struct {
	Device
	client *Client
}

// Camera is a stickup or floodlight camera; it can start live streams
// and switch its floodlight.
type Camera struct {
	Device
	client *Client
}

// Chime is an indoor chime.
type Chime struct {
	Device
	client *Client
}

// BaseStation is an alarm hub.
type BaseStation struct {
	Device
	client *Client
}

// DeviceList is the account's devices grouped by category.
type DeviceList struct {
	Doorbells           []*Doorbell
	Cameras             []*Camera
	Chimes              []*Chime
	BaseStations        []*BaseStation
	AuthorisedDoorbells []*Device
}

// Health is a device health report.
type Health struct {
	DeviceID             json.Number `json:"id"`
	WifiName             string      `json:"wifi_name"`
	BatteryPercentage    json.Number `json:"battery_percentage"`
	LatestSignalStrength json.Number `json:"latest_signal_strength"`
	LatestSignalCategory string      `json:"latest_signal_category"`
	FirmwareVersion      string      `json:"firmware"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Ding is a ring, motion, or on-demand stream event.
type Ding struct {
	ID                 json.Number `json:"id"`
	Kind               string      `json:"kind"`
	State              string      `json:"state"`
	DoorbotID          json.Number `json:"doorbot_id"`
	DoorbotDescription string      `json:"doorbot_description"`
	SIPServerIP        string      `json:"sip_server_ip"`
	Now                DingTime    `json:"now"`
}

// DingTime decodes the vendor's microsecond epoch timestamps.
type DingTime struct {
	time.Time
}

func (t *DingTime) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	// The value may carry a fractional part.
	micros, err := n.Float64()
	if err != nil {
		return err
	}
	t.Time = time.UnixMicro(int64(micros))
	return nil
}

// HistoryItem is one past ring or motion event.
type HistoryItem struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Answered  bool      `json:"answered"`
	CreatedAt time.Time `json:"created_at"`
	Doorbot   struct {
		ID          json.Number `json:"id"`
		Description string      `json:"description"`
	} `json:"doorbot"`
}
