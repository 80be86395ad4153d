package alarm

import "encoding/json"

// Message types exchanged with the alarm hub socket.
const (
	MsgDeviceInfoDocGetList = "DeviceInfoDocGetList"
	MsgRoomGetList          = "RoomGetList"
	MsgDeviceInfoSet        = "DeviceInfoSet"
	MsgDataUpdate           = "DataUpdate"
	MsgDisconnect           = "disconnect"

	dataTypeDeviceInfoSet = "DeviceInfoSetType"
)

// Message is the envelope exchanged with the alarm hub socket.
//
// Seq is assigned at send time by the owning connection and is
// advisory metadata; the socket already guarantees ordering.
type Message struct {
	Msg      string          `json:"msg"`
	DataType string          `json:"datatype,omitempty"`
	Seq      uint64          `json:"seq,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// Mode is an alarm arming mode as the hub understands it.
type Mode string

const (
	ModeDisarmed Mode = "none"
	ModeHome     Mode = "some"
	ModeAway     Mode = "all"
)

// Device kinds reported by the hub.
const (
	KindBaseStation     = "hub.redsky"
	KindKeypad          = "security-keypad"
	KindSecurityPanel   = "security-panel"
	KindContactSensor   = "sensor.contact"
	KindMotionSensor    = "sensor.motion"
	KindRangeExtender   = "range-extender.zwave"
	KindZigbeeAdapter   = "adapter.zigbee"
	KindAccessCodeVault = "access-code.vault"
	KindAccessCode      = "access-code"
)

// kindsWithVolume lists the device kinds that accept a volume setting.
var kindsWithVolume = map[string]bool{
	KindBaseStation: true,
	KindKeypad:      true,
}
