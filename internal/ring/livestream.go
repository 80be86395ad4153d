package ring

import (
	"context"
	"fmt"
	"net/http"
)

// maxStreamTries bounds the polls for the ding announcing a requested
// live stream.
const maxStreamTries = 10

// liveStream requests a live video session for a device and polls the
// active dings until the stream's ding appears.
func (c *Client) liveStream(ctx context.Context, deviceID int64) (*Ding, error) {
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodPost, c.transport.URLs().LiveStream(deviceID), nil); err != nil {
		return nil, fmt.Errorf("ring: requesting live stream for %d: %w", deviceID, err)
	}

	for tries := 0; tries < maxStreamTries; tries++ {
		if logger := c.getLogger(); logger != nil {
			logger.Debug("waiting for live stream ding", "device_id", deviceID, "attempt", tries)
		}

		dings, err := c.ActiveDings(ctx, true)
		if err != nil {
			return nil, err
		}
		if len(dings) > 0 {
			return dings[0], nil
		}
	}

	return nil, fmt.Errorf("%w: device %d after %d attempts", ErrStreamUnavailable, deviceID, maxStreamTries)
}
