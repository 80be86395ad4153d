// Package api provides the relay's local read-only status API.
//
// It exposes the Ring account's device inventory, active events, and
// event history over HTTP for dashboards and debugging, plus a health
// endpoint reporting the state of the relay's own components.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/ring-relay/internal/alarm"
	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
	"github.com/nerrad567/ring-relay/internal/infrastructure/logging"
	"github.com/nerrad567/ring-relay/internal/ring"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Source supplies the Ring account data the API serves. *ring.Client
// satisfies it; tests substitute a fake.
type Source interface {
	Devices(ctx context.Context) (*ring.DeviceList, error)
	ActiveDings(ctx context.Context, burst bool) ([]*ring.Ding, error)
	History(ctx context.Context) ([]*ring.HistoryItem, error)
}

// AlarmView is one alarm location's live device view. *alarm.Alarm
// satisfies it.
type AlarmView interface {
	LocationID() string
	DeviceStates(ctx context.Context) ([]alarm.DeviceData, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	Logger *logging.Logger
	Source Source

	// Alarms are the discovered alarm locations, keyed by location in
	// the routes.
	Alarms []AlarmView

	// Checks are optional per-component health probes reported by the
	// health endpoint (e.g. "mqtt", "influxdb").
	Checks map[string]func(ctx context.Context) error

	Version string
}

// Server is the relay's HTTP status server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	source  Source
	alarms  []AlarmView
	checks  map[string]func(ctx context.Context) error
	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, source)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("ring source is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		source:  deps.Source,
		alarms:  deps.Alarms,
		checks:  deps.Checks,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; stop it with Close().
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
