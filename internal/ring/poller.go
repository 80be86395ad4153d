package ring

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Poller periodically asks the active dings endpoint for new activity
// and notifies listeners of every ding found. Five seconds matches the
// rate the official app polls at.
type Poller struct {
	client   *Client
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc

	handlersMu sync.RWMutex
	handlers   []func(*Ding)
}

// NewPoller creates a poller; Start begins polling.
func NewPoller(client *Client, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
	}
}

// OnActivity registers a handler called for each active ding found.
// Handlers run on the polling goroutine and must not block.
func (p *Poller) OnActivity(fn func(*Ding)) {
	p.handlersMu.Lock()
	p.handlers = append(p.handlers, fn)
	p.handlersMu.Unlock()
}

// Start begins polling until Stop is called or ctx is cancelled.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.run(ctx)
}

// Stop halts polling. Safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	dings, err := p.client.ActiveDings(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if logger := p.client.getLogger(); logger != nil {
			logger.Warn("activity poll failed", "error", err)
		}
		return
	}

	if len(dings) == 0 {
		return
	}

	p.handlersMu.RLock()
	handlers := slices.Clone(p.handlers)
	p.handlersMu.RUnlock()

	for _, ding := range dings {
		for _, fn := range handlers {
			fn(ding)
		}
	}
}
