package alarm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
)

// DeviceData is the flattened merge of the hub's "general" and
// "device" sub-records for one device. Numbers are json.Number.
type DeviceData map[string]any

// sender is the slice of the session a device needs to push settings.
type sender interface {
	Send(ctx context.Context, msg Message) error
}

// Device is one entry in the live device view. Its payload is updated
// in place as hub pushes arrive; the instance itself is never replaced.
type Device struct {
	sender sender

	mu   sync.RWMutex
	data DeviceData
}

func newDevice(data DeviceData, s sender) *Device {
	return &Device{sender: s, data: data}
}

// ZID returns the stable server-assigned device identifier.
func (d *Device) ZID() string {
	zid, _ := d.field("zid").(string)
	return zid
}

// Kind returns the device kind, e.g. "security-panel".
func (d *Device) Kind() string {
	kind, _ := d.field("deviceType").(string)
	return kind
}

// Name returns the user-assigned device name.
func (d *Device) Name() string {
	name, _ := d.field("name").(string)
	return name
}

// Data returns a copy of the device's current payload.
func (d *Device) Data() DeviceData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.data)
}

// SupportsVolume reports whether the device accepts a volume setting:
// only base stations and keypads do, and only when the hub has
// reported a volume field for them.
func (d *Device) SupportsVolume() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kind, _ := d.data["deviceType"].(string)
	if !kindsWithVolume[kind] {
		return false
	}
	_, hasVolume := d.data["volume"]
	return hasVolume
}

// SetVolume pushes a new volume to the device. Volume is a fraction
// between 0 and 1.
func (d *Device) SetVolume(ctx context.Context, volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("%w: got %v", ErrVolumeOutOfRange, volume)
	}
	if !d.SupportsVolume() {
		return fmt.Errorf("%w: %s", ErrVolumeUnsupported, d.Kind())
	}

	body, err := json.Marshal([]map[string]any{{
		"zid": d.ZID(),
		"device": map[string]any{
			"v1": map[string]any{"volume": volume},
		},
	}})
	if err != nil {
		return fmt.Errorf("alarm: encoding volume command: %w", err)
	}

	return d.sender.Send(ctx, Message{
		Msg:      MsgDeviceInfoSet,
		DataType: dataTypeDeviceInfoSet,
		Body:     body,
	})
}

func (d *Device) field(key string) any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data[key]
}

// merge applies a partial update to the payload; updated keys win,
// absent keys keep their current value.
func (d *Device) merge(update DeviceData) {
	d.mu.Lock()
	maps.Copy(d.data, update)
	d.mu.Unlock()
}

// FlattenRecord merges a raw hub device record into the flat payload
// shape the registry stores. Consumers of raw DataUpdate pushes use it
// to read individual records without going through the registry.
func FlattenRecord(raw json.RawMessage) (DeviceData, error) {
	return flattenDeviceRecord(raw)
}

// flattenDeviceRecord merges a raw hub device record's general.v2 and
// device.v1 sub-records into one flat payload. When both carry the
// same key, the device record wins.
func flattenDeviceRecord(raw json.RawMessage) (DeviceData, error) {
	var rec struct {
		General struct {
			V2 DeviceData `json:"v2"`
		} `json:"general"`
		Device struct {
			V1 DeviceData `json:"v1"`
		} `json:"device"`
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("alarm: parsing device record: %w", err)
	}

	out := make(DeviceData, len(rec.General.V2)+len(rec.Device.V1))
	maps.Copy(out, rec.General.V2)
	maps.Copy(out, rec.Device.V1)
	return out, nil
}
