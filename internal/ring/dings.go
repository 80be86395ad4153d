package ring

import (
	"context"
	"fmt"
	"net/http"
)

// ActiveDings lists rings and motions currently in progress. With
// burst set the service answers from its cache instead of fanning out
// to devices, which is faster but may miss very recent events.
func (c *Client) ActiveDings(ctx context.Context, burst bool) ([]*Ding, error) {
	var dings []*Ding
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().DingsActive(burst), &dings); err != nil {
		return nil, fmt.Errorf("ring: listing active dings: %w", err)
	}
	return dings, nil
}

// RecordingURL resolves a past ding to the URL of its stored video.
func (c *Client) RecordingURL(ctx context.Context, dingID int64) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().Recording(dingID), &resp); err != nil {
		return "", fmt.Errorf("ring: resolving recording for ding %d: %w", dingID, err)
	}
	return resp.URL, nil
}
