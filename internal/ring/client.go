package ring

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/ring-relay/internal/alarm"
	"github.com/nerrad567/ring-relay/internal/rest"
)

// Transport is the slice of the authenticated transport the client
// needs. rest.Client implements it.
type Transport interface {
	AuthenticatedRequest(ctx context.Context, method, url string, out any) error
	OAuthRequest(ctx context.Context, method, url string, payload, out any) error
	URLs() rest.URLs
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client exposes the account-level Ring API surface: device listing,
// health, history, active dings, live streams, and alarm discovery.
type Client struct {
	transport Transport

	// Alarm session settings, used when discovering alarms.
	connectionsURL string
	reconnectDelay time.Duration

	// logger (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// NewClient creates a Client on top of an authenticated transport.
func NewClient(transport Transport, connectionsURL string, reconnectDelay time.Duration) *Client {
	return &Client{
		transport:      transport,
		connectionsURL: connectionsURL,
		reconnectDelay: reconnectDelay,
	}
}

// SetLogger sets a logger. If not set, the client is silent.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Alarms discovers the account's alarm locations. Each base station
// belongs to a location; one Alarm is created per distinct location.
// The returned alarms connect lazily on first use.
func (c *Client) Alarms(ctx context.Context) ([]*alarm.Alarm, error) {
	list, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var alarms []*alarm.Alarm
	for _, station := range list.BaseStations {
		if station.LocationID == "" || seen[station.LocationID] {
			continue
		}
		seen[station.LocationID] = true
		alarms = append(alarms, alarm.New(c.transport, c.connectionsURL, station.LocationID, c.reconnectDelay))
	}
	return alarms, nil
}
