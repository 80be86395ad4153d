package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
)

const (
	// defaultConnectTimeout is the maximum time to wait for the initial
	// broker connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for a publish
	// token to complete.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the grace period in milliseconds for
	// in-flight messages during a clean disconnect.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the MQTT keepalive interval.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the highest valid MQTT QoS level.
	maxQoS = 2

	// tlsMinVersion is the minimum accepted TLS version for broker
	// connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions constructs paho client options from the relay configuration.
func (c *Client) buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetCleanSession(true)

	// Paho handles broker reconnection itself; the relay only tracks the
	// connected flag through the handlers below.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleDisconnect)

	c.configureLWT(opts)

	return opts
}

// configureLWT registers a retained last-will message so subscribers learn
// when the relay drops off the broker uncleanly.
func (c *Client) configureLWT(opts *pahomqtt.ClientOptions) {
	opts.SetBinaryWill(Topics{}.SystemStatus(), buildStatusPayload("offline"), 1, true)
}

// buildStatusPayload renders the system status JSON document.
func buildStatusPayload(status string) []byte {
	payload, err := json.Marshal(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// The map above always marshals; keep a static fallback anyway.
		return []byte(`{"status":"` + status + `"}`)
	}
	return payload
}
