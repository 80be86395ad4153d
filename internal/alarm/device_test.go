package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// recordingSender captures messages a device tries to send.
type recordingSender struct {
	sent []Message
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func baseStationDevice(sender sender) *Device {
	return newDevice(DeviceData{
		"zid":        "zid-base",
		"deviceType": KindBaseStation,
		"name":       "Base Station",
		"volume":     json.Number("0.5"),
	}, sender)
}

func TestSupportsVolume(t *testing.T) {
	tests := []struct {
		name string
		data DeviceData
		want bool
	}{
		{"base station with volume", DeviceData{"deviceType": KindBaseStation, "volume": json.Number("1")}, true},
		{"keypad with volume", DeviceData{"deviceType": KindKeypad, "volume": json.Number("0")}, true},
		{"keypad without volume field", DeviceData{"deviceType": KindKeypad}, false},
		{"contact sensor", DeviceData{"deviceType": KindContactSensor, "volume": json.Number("1")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDevice(tt.data, nil)
			if got := d.SupportsVolume(); got != tt.want {
				t.Errorf("SupportsVolume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetVolumeOutOfRange(t *testing.T) {
	sender := &recordingSender{}
	d := baseStationDevice(sender)

	for _, volume := range []float64{-0.1, 1.1, 42} {
		err := d.SetVolume(context.Background(), volume)
		if !errors.Is(err, ErrVolumeOutOfRange) {
			t.Errorf("SetVolume(%v) error = %v, want ErrVolumeOutOfRange", volume, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Errorf("invalid volume still sent %d commands", len(sender.sent))
	}
}

func TestSetVolumeUnsupportedKind(t *testing.T) {
	sender := &recordingSender{}
	d := newDevice(DeviceData{
		"zid":        "zid-sensor",
		"deviceType": KindContactSensor,
	}, sender)

	err := d.SetVolume(context.Background(), 0.5)
	if !errors.Is(err, ErrVolumeUnsupported) {
		t.Errorf("error = %v, want ErrVolumeUnsupported", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("unsupported device still sent %d commands", len(sender.sent))
	}
}

func TestSetVolumeSendsCommand(t *testing.T) {
	sender := &recordingSender{}
	d := baseStationDevice(sender)

	if err := d.SetVolume(context.Background(), 0.7); err != nil {
		t.Fatalf("SetVolume() error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d commands, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.Msg != MsgDeviceInfoSet || msg.DataType != dataTypeDeviceInfoSet {
		t.Errorf("command envelope = %q/%q", msg.Msg, msg.DataType)
	}

	var body []struct {
		ZID    string `json:"zid"`
		Device struct {
			V1 struct {
				Volume float64 `json:"volume"`
			} `json:"v1"`
		} `json:"device"`
	}
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("parsing command body: %v", err)
	}
	if len(body) != 1 || body[0].ZID != "zid-base" || body[0].Device.V1.Volume != 0.7 {
		t.Errorf("command body = %s", msg.Body)
	}
}

func TestFlattenDeviceRecord(t *testing.T) {
	raw := json.RawMessage(`{
		"general": {"v2": {"zid": "z1", "deviceType": "sensor.contact", "name": "Front Door", "faulted": false}},
		"device": {"v1": {"faulted": true, "batteryLevel": 99}}
	}`)

	data, err := flattenDeviceRecord(raw)
	if err != nil {
		t.Fatalf("flattenDeviceRecord() error: %v", err)
	}

	if data["zid"] != "z1" || data["name"] != "Front Door" {
		t.Errorf("general fields missing: %v", data)
	}
	// The device sub-record wins on conflicting keys.
	if data["faulted"] != true {
		t.Errorf("faulted = %v, device record should win", data["faulted"])
	}
	if data["batteryLevel"] != json.Number("99") {
		t.Errorf("batteryLevel = %v (%T), want json.Number", data["batteryLevel"], data["batteryLevel"])
	}
}

func TestMergeUpdatesInPlace(t *testing.T) {
	d := newDevice(DeviceData{"zid": "z1", "name": "Old", "batteryLevel": json.Number("50")}, nil)

	d.merge(DeviceData{"name": "New"})

	data := d.Data()
	if data["name"] != "New" {
		t.Errorf("name = %v, want New", data["name"])
	}
	if data["batteryLevel"] != json.Number("50") {
		t.Errorf("untouched key changed: %v", data["batteryLevel"])
	}
}
