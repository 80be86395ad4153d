package mqtt

import "errors"

// Sentinel errors for MQTT operations.
// These can be checked with errors.Is() for specific error handling.
var (
	// ErrNotConnected indicates the client is not connected to the broker.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed indicates the initial connection to the broker failed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed indicates a publish operation failed.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidQoS indicates an invalid QoS level was specified.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrInvalidTopic indicates an invalid topic was specified.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
