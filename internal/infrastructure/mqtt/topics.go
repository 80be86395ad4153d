package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root namespace for all relay topics.
const TopicPrefix = "ringrelay"

// Topics provides builders for the relay's MQTT topic hierarchy.
//
// The hierarchy is:
//
//	ringrelay/system/status                          relay online/offline (retained, LWT)
//	ringrelay/activity/{kind}/{doorbotID}            camera and doorbell events
//	ringrelay/camera/{doorbotID}/health              camera health snapshots
//	ringrelay/alarm/{locationID}/mode                alarm mode changes (retained)
//	ringrelay/alarm/{locationID}/device/{zid}/state  alarm device state updates
type Topics struct{}

// SystemStatus returns the topic carrying the relay's online/offline status.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// Activity returns the topic for a camera or doorbell event of the given kind
// (ding, motion, on_demand).
func (Topics) Activity(kind string, doorbotID int64) string {
	return fmt.Sprintf("%s/activity/%s/%d", TopicPrefix, kind, doorbotID)
}

// CameraHealth returns the topic for a camera health snapshot.
func (Topics) CameraHealth(doorbotID int64) string {
	return fmt.Sprintf("%s/camera/%d/health", TopicPrefix, doorbotID)
}

// AlarmMode returns the topic for a location's alarm mode.
func (Topics) AlarmMode(locationID string) string {
	return fmt.Sprintf("%s/alarm/%s/mode", TopicPrefix, locationID)
}

// AlarmDeviceState returns the topic for an alarm device's state updates.
func (Topics) AlarmDeviceState(locationID, zid string) string {
	return fmt.Sprintf("%s/alarm/%s/device/%s/state", TopicPrefix, locationID, zid)
}

// validateTopic checks that a topic is publishable: non-empty, no wildcard
// characters, and no empty levels.
func validateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in publish topic %q", ErrInvalidTopic, topic)
	}
	for _, level := range strings.Split(topic, "/") {
		if level == "" {
			return fmt.Errorf("%w: empty level in topic %q", ErrInvalidTopic, topic)
		}
	}
	return nil
}
