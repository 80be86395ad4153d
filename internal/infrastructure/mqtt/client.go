package mqtt

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
)

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client wraps a paho MQTT client as a publish-only relay endpoint.
//
// The relay never subscribes: Ring events flow outward only. Connection
// state is tracked through the paho connect/disconnect handlers, and an
// online status document is retained on the system status topic so
// subscribers can distinguish a running relay from a crashed one (the
// last-will message flips it to offline).
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	qos    byte

	mu        sync.RWMutex
	connected bool

	onConnect    func()
	onDisconnect func(error)

	logger   Logger
	loggerMu sync.RWMutex
}

// Connect establishes the broker connection and publishes the retained
// online status document.
//
// Parameters:
//   - cfg: Broker address, credentials, QoS and reconnect settings
//
// Returns:
//   - *Client: Connected client ready for publishing
//   - error: ErrConnectionFailed if the broker cannot be reached in time
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQoS, cfg.QoS)
	}

	c := &Client{qos: byte(cfg.QoS)}

	opts := c.buildClientOptions(cfg)
	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// SetLogger sets the logger used by this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	defer c.loggerMu.Unlock()
	c.logger = logger
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// SetOnConnect registers a callback invoked after each successful broker
// connection, including reconnects.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

// SetOnDisconnect registers a callback invoked when the broker connection
// is lost.
func (c *Client) SetOnDisconnect(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// handleConnect runs on every successful broker connection.
func (c *Client) handleConnect(_ pahomqtt.Client) {
	c.mu.Lock()
	c.connected = true
	fn := c.onConnect
	c.mu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Debug("mqtt broker connected")
	}

	c.publishOnlineStatus()

	if fn != nil {
		fn()
	}
}

// handleDisconnect runs when the broker connection drops. Paho keeps
// retrying in the background; this only updates state and notifies.
func (c *Client) handleDisconnect(_ pahomqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	fn := c.onDisconnect
	c.mu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("mqtt broker connection lost", "error", err)
	}

	if fn != nil {
		fn(err)
	}
}

// publishOnlineStatus retains the online status document on the system
// status topic, replacing any earlier offline will message.
func (c *Client) publishOnlineStatus() {
	token := c.client.Publish(Topics{}.SystemStatus(), 1, true, buildStatusPayload("online"))
	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("failed to publish online status", "error", token.Error())
		}
	}
}

// IsConnected reports whether the broker connection is currently up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// HealthCheck returns an error when the broker connection is down.
func (c *Client) HealthCheck() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close publishes a graceful offline status and disconnects from the
// broker, allowing in-flight messages a short quiesce period.
func (c *Client) Close() error {
	c.mu.Lock()
	client := c.client
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if client == nil {
		return nil
	}

	if wasConnected && client.IsConnected() {
		token := client.Publish(Topics{}.SystemStatus(), 1, true, buildStatusPayload("offline"))
		token.WaitTimeout(defaultPublishTimeout)
	}

	client.Disconnect(defaultDisconnectQuiesce)

	if logger := c.getLogger(); logger != nil {
		logger.Debug("mqtt client closed")
	}
	return nil
}

// waitPublish waits for a publish token and translates its outcome.
func waitPublish(token pahomqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %w", ErrPublishFailed, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
