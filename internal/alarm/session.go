package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Rest is the slice of the transport layer the session needs: the
// connection coordinates endpoint is an OAuth-flavoured call.
type Rest interface {
	OAuthRequest(ctx context.Context, method, url string, payload, out any) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// connectionDetails are the hub socket coordinates returned by the
// connections endpoint.
type connectionDetails struct {
	Server   string `json:"server"`
	AuthCode string `json:"authCode"`
}

// attempt is one in-flight connection establishment shared by every
// caller waiting for a connection.
type attempt struct {
	done chan struct{}
	conn *dispatcher
	err  error
}

// Session is a long-lived connection to one location's alarm hub.
//
// The connection is established lazily on first use and re-established
// automatically after socket failures, with a fixed delay between
// attempts. Callers waiting for a connection block across reconnect
// attempts and share a single establishment; requests in flight when
// the socket drops hang until a fresh connection delivers a reply or
// their context is cancelled.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	rest           Rest
	connectionsURL string
	locationID     string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *dispatcher
	pending *attempt

	// One-shot waiters keyed by expected message type. A single
	// arrival satisfies every caller currently awaiting that type.
	waitersMu sync.Mutex
	waiters   map[string][]chan Message

	// Persistent observers.
	handlersMu sync.RWMutex
	onUpdate   []func(Message)
	onMessage  map[string][]func(Message)

	// logger for connection diagnostics (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// NewSession creates a session for the given location. No connection
// is made until the session is first used.
func NewSession(rest Rest, connectionsURL, locationID string, reconnectDelay time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		rest:           rest,
		connectionsURL: connectionsURL,
		locationID:     locationID,
		reconnectDelay: reconnectDelay,
		dialer:         websocket.DefaultDialer,
		ctx:            ctx,
		cancel:         cancel,
		waiters:        make(map[string][]chan Message),
		onMessage:      make(map[string][]func(Message)),
	}
}

// SetLogger sets a logger for connection diagnostics.
// If not set, the session is silent.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// LocationID returns the location this session is bound to.
func (s *Session) LocationID() string {
	return s.locationID
}

// OnDataUpdate registers a handler for unsolicited device state pushes.
// Handlers run on the read loop goroutine and must not block.
func (s *Session) OnDataUpdate(fn func(Message)) {
	s.handlersMu.Lock()
	s.onUpdate = append(s.onUpdate, fn)
	s.handlersMu.Unlock()
}

// OnMessage registers a persistent handler for every message of the
// given type. Handlers run on the read loop goroutine and must not block.
func (s *Session) OnMessage(msgType string, fn func(Message)) {
	s.handlersMu.Lock()
	s.onMessage[msgType] = append(s.onMessage[msgType], fn)
	s.handlersMu.Unlock()
}

// Connect forces connection establishment. Most callers can rely on
// the lazy connect performed by Send.
func (s *Session) Connect(ctx context.Context) error {
	_, err := s.connection(ctx)
	return err
}

// Send transmits a message on the hub socket, connecting first if
// needed. A write failure triggers reconnection and is returned.
func (s *Session) Send(ctx context.Context, msg Message) error {
	conn, err := s.connection(ctx)
	if err != nil {
		return err
	}
	if err := conn.send(msg); err != nil {
		s.handleDisconnect(conn, err)
		return fmt.Errorf("alarm: sending %s: %w", msg.Msg, err)
	}
	return nil
}

// SendAndAwait transmits a message and blocks until the next inbound
// message of responseType arrives, or ctx is cancelled.
//
// The waiter is registered before the send so a fast reply cannot be
// missed. Correlation is by type only: if several callers await the
// same type concurrently, one matching arrival satisfies all of them.
func (s *Session) SendAndAwait(ctx context.Context, msg Message, responseType string) (Message, error) {
	ch := make(chan Message, 1)
	s.waitersMu.Lock()
	s.waiters[responseType] = append(s.waiters[responseType], ch)
	s.waitersMu.Unlock()

	if err := s.Send(ctx, msg); err != nil {
		s.removeWaiter(responseType, ch)
		return Message{}, err
	}

	select {
	case <-ctx.Done():
		s.removeWaiter(responseType, ch)
		return Message{}, ctx.Err()
	case reply := <-ch:
		return reply, nil
	}
}

// Close shuts the session down. Pending waiters are released by their
// own context cancellation; no further connections will be made.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.close()
	}
}

// connection returns the live connection, joining or starting an
// establishment attempt if there is none.
func (s *Session) connection(ctx context.Context) (*dispatcher, error) {
	s.mu.Lock()
	if s.conn != nil {
		conn := s.conn
		s.mu.Unlock()
		return conn, nil
	}
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.pending == nil {
		s.pending = &attempt{done: make(chan struct{})}
		go s.establish(s.pending, false)
	}
	p := s.pending
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.conn, nil
}

// establish dials until a connection succeeds or the session closes.
// The attempt is resolved only on success or session shutdown, so
// callers block across failed dials.
func (s *Session) establish(p *attempt, delayFirst bool) {
	finish := func(conn *dispatcher, err error) {
		s.mu.Lock()
		s.conn = conn
		s.pending = nil
		s.mu.Unlock()
		p.conn = conn
		p.err = err
		close(p.done)
	}

	if delayFirst {
		if err := sleepCtx(s.ctx, s.reconnectDelay); err != nil {
			finish(nil, ErrSessionClosed)
			return
		}
	}

	for {
		conn, err := s.dial(s.ctx)
		if err == nil {
			finish(conn, nil)

			go s.readLoop(conn)

			// Prime the device registry with a full list.
			if sendErr := conn.send(Message{Msg: MsgDeviceInfoDocGetList}); sendErr != nil {
				s.handleDisconnect(conn, sendErr)
			}
			return
		}

		if s.ctx.Err() != nil {
			finish(nil, ErrSessionClosed)
			return
		}

		if logger := s.getLogger(); logger != nil {
			logger.Warn("hub connection failed, retrying",
				"location_id", s.locationID,
				"delay", s.reconnectDelay,
				"error", err,
			)
		}
		if sleepErr := sleepCtx(s.ctx, s.reconnectDelay); sleepErr != nil {
			finish(nil, ErrSessionClosed)
			return
		}
	}
}

// dial fetches connection coordinates and opens the hub socket.
func (s *Session) dial(ctx context.Context) (*dispatcher, error) {
	var details connectionDetails
	err := s.rest.OAuthRequest(ctx, http.MethodPost, s.connectionsURL, map[string]any{
		"accountId": s.locationID,
	}, &details)
	if err != nil {
		return nil, fmt.Errorf("alarm: fetching connection details: %w", err)
	}

	endpoint := details.Server
	if !strings.Contains(endpoint, "://") {
		endpoint = "wss://" + endpoint
	}
	socketURL := endpoint + "/?authcode=" + url.QueryEscape(details.AuthCode)

	ws, resp, err := s.dialer.DialContext(ctx, socketURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("alarm: dialling hub socket: %w", err)
	}

	return newDispatcher(ws), nil
}

// readLoop consumes inbound messages until the socket fails.
func (s *Session) readLoop(conn *dispatcher) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			s.handleDisconnect(conn, err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if logger := s.getLogger(); logger != nil {
				logger.Warn("discarding unparseable hub message", "error", err)
			}
			continue
		}

		// The hub announces planned socket teardown; treat it as a
		// failure so a fresh connection is established.
		if msg.Msg == MsgDisconnect {
			s.handleDisconnect(conn, fmt.Errorf("alarm: hub requested disconnect"))
			return
		}

		s.route(msg)
	}
}

// route delivers an inbound message to update handlers, typed
// observers, and one-shot waiters, in that order. Observers run before
// waiters so state consumers see the message before a blocked caller
// resumes.
func (s *Session) route(msg Message) {
	s.handlersMu.RLock()
	var update []func(Message)
	if msg.Msg == MsgDataUpdate {
		update = slices.Clone(s.onUpdate)
	}
	typed := slices.Clone(s.onMessage[msg.Msg])
	s.handlersMu.RUnlock()

	for _, fn := range update {
		fn(msg)
	}
	for _, fn := range typed {
		fn(msg)
	}

	s.waitersMu.Lock()
	waiting := s.waiters[msg.Msg]
	delete(s.waiters, msg.Msg)
	s.waitersMu.Unlock()

	for _, ch := range waiting {
		ch <- msg
	}
}

func (s *Session) removeWaiter(msgType string, ch chan Message) {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()

	list := s.waiters[msgType]
	for i, c := range list {
		if c == ch {
			s.waiters[msgType] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.waiters[msgType]) == 0 {
		delete(s.waiters, msgType)
	}
}

// handleDisconnect tears down a failed connection and starts a fresh
// establishment attempt. Idempotent: late failure reports from a
// connection that has already been replaced are ignored.
func (s *Session) handleDisconnect(conn *dispatcher, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.mu.Unlock()

	conn.close()

	if s.ctx.Err() != nil {
		return
	}

	if logger := s.getLogger(); logger != nil {
		logger.Warn("hub socket lost, reconnecting",
			"location_id", s.locationID,
			"error", cause,
		)
	}

	s.mu.Lock()
	if s.conn == nil && s.pending == nil && s.ctx.Err() == nil {
		s.pending = &attempt{done: make(chan struct{})}
		go s.establish(s.pending, true)
	}
	s.mu.Unlock()
}

// sleepCtx waits for d or until ctx is cancelled, whichever is first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
