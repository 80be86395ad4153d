package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Alarm is the control surface for one alarm location: its hub
// session, its device view, and the security panel commands.
type Alarm struct {
	session  *Session
	registry *Registry

	mu       sync.Mutex
	panelZID string
}

// New creates an Alarm for one location. No connection is made until
// first use.
func New(rest Rest, connectionsURL, locationID string, reconnectDelay time.Duration) *Alarm {
	session := NewSession(rest, connectionsURL, locationID, reconnectDelay)
	return &Alarm{
		session:  session,
		registry: NewRegistry(session),
	}
}

// Session returns the underlying hub session.
func (a *Alarm) Session() *Session {
	return a.session
}

// Registry returns the live device view.
func (a *Alarm) Registry() *Registry {
	return a.registry
}

// LocationID returns the location this alarm belongs to.
func (a *Alarm) LocationID() string {
	return a.session.LocationID()
}

// Devices returns the location's devices, connecting and fetching the
// list on first use.
func (a *Alarm) Devices(ctx context.Context) ([]*Device, error) {
	return a.registry.Devices(ctx)
}

// DeviceStates returns a copy of every device's current payload,
// connecting and fetching the list on first use.
func (a *Alarm) DeviceStates(ctx context.Context) ([]DeviceData, error) {
	devices, err := a.registry.Devices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceData, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Data())
	}
	return out, nil
}

// Rooms fetches the location's room list.
func (a *Alarm) Rooms(ctx context.Context) (json.RawMessage, error) {
	return a.RequestList(ctx, MsgRoomGetList)
}

// RequestList issues a list request of the given type and returns the
// reply body. List replies carry the request type as their message type.
func (a *Alarm) RequestList(ctx context.Context, listType string) (json.RawMessage, error) {
	reply, err := a.session.SendAndAwait(ctx, Message{Msg: listType}, listType)
	if err != nil {
		return nil, err
	}
	return reply.Body, nil
}

// SetDeviceInfo pushes arbitrary settings to one device. The fields
// map becomes the record's device.v1 payload.
func (a *Alarm) SetDeviceInfo(ctx context.Context, zid string, fields map[string]any) error {
	body, err := json.Marshal([]map[string]any{{
		"zid": zid,
		"device": map[string]any{
			"v1": fields,
		},
	}})
	if err != nil {
		return fmt.Errorf("alarm: encoding device settings: %w", err)
	}

	return a.session.Send(ctx, Message{
		Msg:      MsgDeviceInfoSet,
		DataType: dataTypeDeviceInfoSet,
		Body:     body,
	})
}

// Disarm switches the alarm off.
func (a *Alarm) Disarm(ctx context.Context) error {
	return a.SetMode(ctx, ModeDisarmed, nil)
}

// ArmHome arms the perimeter sensors only, bypassing the given sensors.
func (a *Alarm) ArmHome(ctx context.Context, bypassZIDs []string) error {
	return a.SetMode(ctx, ModeHome, bypassZIDs)
}

// ArmAway arms all sensors, bypassing the given sensors.
func (a *Alarm) ArmAway(ctx context.Context, bypassZIDs []string) error {
	return a.SetMode(ctx, ModeAway, bypassZIDs)
}

// SetMode sends a mode switch command to the location's security panel.
func (a *Alarm) SetMode(ctx context.Context, mode Mode, bypassZIDs []string) error {
	zid, err := a.securityPanelZID(ctx)
	if err != nil {
		return err
	}

	data := map[string]any{"mode": mode}
	if len(bypassZIDs) > 0 {
		data["bypass"] = bypassZIDs
	}

	body, err := json.Marshal([]map[string]any{{
		"zid": zid,
		"command": map[string]any{
			"v1": []map[string]any{{
				"commandType": "security-panel.switch-mode",
				"data":        data,
			}},
		},
	}})
	if err != nil {
		return fmt.Errorf("alarm: encoding mode command: %w", err)
	}

	return a.session.Send(ctx, Message{
		Msg:      MsgDeviceInfoSet,
		DataType: dataTypeDeviceInfoSet,
		Body:     body,
	})
}

// Close shuts down the hub session.
func (a *Alarm) Close() {
	a.session.Close()
}

// securityPanelZID finds and caches the location's security panel
// identifier. Panels do not move between locations, so the cache is
// never invalidated.
func (a *Alarm) securityPanelZID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.panelZID != "" {
		return a.panelZID, nil
	}

	if _, err := a.registry.Devices(ctx); err != nil {
		return "", err
	}

	panel := a.registry.FindKind(KindSecurityPanel)
	if panel == nil {
		return "", fmt.Errorf("%w: location %s", ErrNoSecurityPanel, a.LocationID())
	}

	a.panelZID = panel.ZID()
	return a.panelZID, nil
}
