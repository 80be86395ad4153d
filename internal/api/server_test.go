package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/ring-relay/internal/alarm"
	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
	"github.com/nerrad567/ring-relay/internal/infrastructure/logging"
	"github.com/nerrad567/ring-relay/internal/ring"
)

type fakeSource struct {
	devices func() (*ring.DeviceList, error)
	dings   func(burst bool) ([]*ring.Ding, error)
	history func() ([]*ring.HistoryItem, error)
}

func (f *fakeSource) Devices(_ context.Context) (*ring.DeviceList, error) {
	if f.devices == nil {
		return &ring.DeviceList{}, nil
	}
	return f.devices()
}

func (f *fakeSource) ActiveDings(_ context.Context, burst bool) ([]*ring.Ding, error) {
	if f.dings == nil {
		return nil, nil
	}
	return f.dings(burst)
}

func (f *fakeSource) History(_ context.Context) ([]*ring.HistoryItem, error) {
	if f.history == nil {
		return nil, nil
	}
	return f.history()
}

func newTestServer(t *testing.T, source Source, checks map[string]func(ctx context.Context) error) *Server {
	t.Helper()
	server, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logging.Default(),
		Source:  source,
		Checks:  checks,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return server
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	server.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() without source should fail")
	}
	if _, err := New(Deps{Source: &fakeSource{}}); err == nil {
		t.Error("New() without logger should fail")
	}
}

func TestHealthReportsComponents(t *testing.T) {
	checks := map[string]func(ctx context.Context) error{
		"mqtt":     func(context.Context) error { return nil },
		"influxdb": func(context.Context) error { return errors.New("not connected") },
	}
	server := newTestServer(t, &fakeSource{}, checks)

	rec := doRequest(t, server, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Status     string            `json:"status"`
		Version    string            `json:"version"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if body.Components["mqtt"] != "ok" || body.Components["influxdb"] != "not connected" {
		t.Errorf("components = %v", body.Components)
	}
	if body.Version != "test" {
		t.Errorf("version = %q", body.Version)
	}
}

func TestDevicesEndpoint(t *testing.T) {
	source := &fakeSource{
		devices: func() (*ring.DeviceList, error) {
			return &ring.DeviceList{
				Doorbells: []*ring.Doorbell{{Device: ring.Device{ID: 11, Description: "Front Door"}}},
			}, nil
		},
	}
	server := newTestServer(t, source, nil)

	rec := doRequest(t, server, "/api/v1/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var list ring.DeviceList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(list.Doorbells) != 1 || list.Doorbells[0].Description != "Front Door" {
		t.Errorf("doorbells = %+v", list.Doorbells)
	}
}

func TestDevicesUpstreamFailure(t *testing.T) {
	source := &fakeSource{
		devices: func() (*ring.DeviceList, error) { return nil, errors.New("cloud down") },
	}
	server := newTestServer(t, source, nil)

	rec := doRequest(t, server, "/api/v1/devices")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var apiErr Error
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if apiErr.Code != ErrCodeUpstream {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUpstream)
	}
}

func TestActiveDingsBurstFlag(t *testing.T) {
	var gotBurst bool
	source := &fakeSource{
		dings: func(burst bool) ([]*ring.Ding, error) {
			gotBurst = burst
			return nil, nil
		},
	}
	server := newTestServer(t, source, nil)

	rec := doRequest(t, server, "/api/v1/dings/active?burst=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !gotBurst {
		t.Error("burst query parameter not passed through")
	}
	// nil slice renders as an empty array, not null
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty array", got)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	source := &fakeSource{
		history: func() ([]*ring.HistoryItem, error) {
			return []*ring.HistoryItem{{ID: 77, Kind: "ding", Answered: true}}, nil
		},
	}
	server := newTestServer(t, source, nil)

	rec := doRequest(t, server, "/api/v1/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var items []*ring.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(items) != 1 || items[0].ID != 77 {
		t.Errorf("items = %+v", items)
	}
}

type fakeAlarmView struct {
	locationID string
	states     func() ([]alarm.DeviceData, error)
}

func (f *fakeAlarmView) LocationID() string {
	return f.locationID
}

func (f *fakeAlarmView) DeviceStates(_ context.Context) ([]alarm.DeviceData, error) {
	if f.states == nil {
		return nil, nil
	}
	return f.states()
}

func newTestServerWithAlarms(t *testing.T, alarms []AlarmView) *Server {
	t.Helper()
	server, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logging.Default(),
		Source:  &fakeSource{},
		Alarms:  alarms,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return server
}

func TestAlarmsListsLocations(t *testing.T) {
	server := newTestServerWithAlarms(t, []AlarmView{
		&fakeAlarmView{locationID: "loc-1"},
		&fakeAlarmView{locationID: "loc-2"},
	})

	rec := doRequest(t, server, "/api/v1/alarms/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Locations []string `json:"locations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Locations) != 2 || body.Locations[0] != "loc-1" {
		t.Errorf("locations = %v", body.Locations)
	}
}

func TestAlarmDevicesEndpoint(t *testing.T) {
	view := &fakeAlarmView{
		locationID: "loc-1",
		states: func() ([]alarm.DeviceData, error) {
			return []alarm.DeviceData{{"zid": "z1", "deviceType": "sensor.contact"}}, nil
		},
	}
	server := newTestServerWithAlarms(t, []AlarmView{view})

	rec := doRequest(t, server, "/api/v1/alarms/loc-1/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var states []alarm.DeviceData
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(states) != 1 || states[0]["zid"] != "z1" {
		t.Errorf("states = %+v", states)
	}
}

func TestAlarmDevicesUnknownLocation(t *testing.T) {
	server := newTestServerWithAlarms(t, []AlarmView{&fakeAlarmView{locationID: "loc-1"}})

	rec := doRequest(t, server, "/api/v1/alarms/loc-9/devices")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var apiErr Error
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if apiErr.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeNotFound)
	}
}

func TestRequestIDHeader(t *testing.T) {
	server := newTestServer(t, &fakeSource{}, nil)

	rec := doRequest(t, server, "/api/v1/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
