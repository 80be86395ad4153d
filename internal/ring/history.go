package ring

import (
	"context"
	"fmt"
	"net/http"
)

// History lists recent ring and motion events across the account.
func (c *Client) History(ctx context.Context) ([]*HistoryItem, error) {
	var items []*HistoryItem
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().History(), &items); err != nil {
		return nil, fmt.Errorf("ring: listing history: %w", err)
	}
	return items, nil
}

// VideoURL resolves the history item's recording to a video URL.
func (h *HistoryItem) VideoURL(ctx context.Context, c *Client) (string, error) {
	return c.RecordingURL(ctx, h.ID)
}
