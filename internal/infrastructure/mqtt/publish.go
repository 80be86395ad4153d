package mqtt

import (
	"encoding/json"
	"fmt"
)

// maxPayloadSize caps outgoing payloads at 1 MB. Relay documents are tiny;
// anything larger indicates a bug upstream.
const maxPayloadSize = 1 << 20

// Publish sends a payload to a topic at the configured QoS.
//
// Parameters:
//   - topic: Destination topic, validated against wildcards and empty levels
//   - payload: Raw message bytes
//
// Returns:
//   - error: ErrNotConnected, ErrInvalidTopic, or ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte) error {
	return c.publish(topic, payload, false)
}

// PublishRetained sends a payload with the retained flag set, so late
// subscribers receive the most recent value immediately.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.publish(topic, payload, true)
}

// PublishJSON marshals a value and publishes it.
func (c *Client) PublishJSON(topic string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshaling payload: %w", ErrPublishFailed, err)
	}
	return c.publish(topic, payload, false)
}

// PublishJSONRetained marshals a value and publishes it retained.
func (c *Client) PublishJSONRetained(topic string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshaling payload: %w", ErrPublishFailed, err)
	}
	return c.publish(topic, payload, true)
}

func (c *Client) publish(topic string, payload []byte, retained bool) error {
	if err := validateTopic(topic); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload %d bytes exceeds %d byte limit",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.qos, retained, payload)
	if err := waitPublish(token, defaultPublishTimeout); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Error("publish failed", "topic", topic, "error", err)
		}
		return err
	}

	if logger := c.getLogger(); logger != nil {
		logger.Debug("published", "topic", topic, "bytes", len(payload), "retained", retained)
	}
	return nil
}
