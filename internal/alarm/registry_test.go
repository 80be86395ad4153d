package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func listMessage(records ...string) Message {
	body := "[" + joinRecords(records) + "]"
	return Message{Msg: MsgDeviceInfoDocGetList, Body: json.RawMessage(body)}
}

func updateMessage(records ...string) Message {
	body := "[" + joinRecords(records) + "]"
	return Message{Msg: MsgDataUpdate, DataType: "HubDisconnectionEventType", Body: json.RawMessage(body)}
}

func joinRecords(records []string) string {
	out := ""
	for i, r := range records {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out
}

func record(zid, kind, name string) string {
	return fmt.Sprintf(`{"general": {"v2": {"zid": %q, "deviceType": %q, "name": %q}}, "device": {"v1": {}}}`, zid, kind, name)
}

func newBareRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

func TestRegistryListCreatesDevices(t *testing.T) {
	r := newBareRegistry()

	r.absorbList(listMessage(
		record("a", KindSecurityPanel, "Panel"),
		record("b", KindContactSensor, "Front Door"),
	))

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	if d, ok := r.ByZID("a"); !ok || d.Kind() != KindSecurityPanel {
		t.Errorf("device a missing or wrong kind")
	}
}

func TestRegistryDeltaUpdatesOnlyTarget(t *testing.T) {
	r := newBareRegistry()
	r.absorbList(listMessage(
		record("a", KindContactSensor, "Front Door"),
		record("b", KindContactSensor, "Back Door"),
	))

	a, _ := r.ByZID("a")
	b, _ := r.ByZID("b")

	r.absorbUpdate(updateMessage(
		`{"general": {"v2": {"zid": "a", "name": "Renamed"}}}`,
	))

	if r.Count() != 2 {
		t.Errorf("Count() = %d after delta, want 2", r.Count())
	}
	if a.Name() != "Renamed" {
		t.Errorf("a.Name() = %q, want Renamed", a.Name())
	}
	if b.Name() != "Back Door" {
		t.Errorf("b was touched by a's delta: %q", b.Name())
	}
	// The instance is updated in place, never replaced.
	if again, _ := r.ByZID("a"); again != a {
		t.Error("device instance was replaced instead of updated")
	}
}

func TestRegistryUnknownUpdateCreatesDevice(t *testing.T) {
	r := newBareRegistry()

	r.absorbUpdate(updateMessage(record("new", KindMotionSensor, "Hallway")))

	if d, ok := r.ByZID("new"); !ok || d.Kind() != KindMotionSensor {
		t.Error("update for unknown identifier should create the device")
	}
}

func TestRegistrySnapshotKeepsFirstSeenOrder(t *testing.T) {
	r := newBareRegistry()
	r.absorbList(listMessage(
		record("c", KindContactSensor, "C"),
		record("a", KindContactSensor, "A"),
	))
	r.absorbUpdate(updateMessage(record("b", KindContactSensor, "B")))

	var zids []string
	for _, d := range r.snapshot() {
		zids = append(zids, d.ZID())
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if zids[i] != want[i] {
			t.Fatalf("snapshot order = %v, want %v", zids, want)
		}
	}
}

func TestRegistryMalformedRecordsSkipped(t *testing.T) {
	r := newBareRegistry()

	r.absorbList(Message{Msg: MsgDeviceInfoDocGetList, Body: json.RawMessage(`"not an array"`)})
	r.absorbList(listMessage(`{"general": {"v2": {"deviceType": "sensor.contact"}}}`)) // no zid

	if r.Count() != 0 {
		t.Errorf("Count() = %d, malformed records should be skipped", r.Count())
	}
}

func TestRegistryDevicesFetchesOverSocket(t *testing.T) {
	session, hub, _ := newTestSession(t)
	registry := NewRegistry(session)

	hub.setResponder(func(msg Message) *Message {
		if msg.Msg != MsgDeviceInfoDocGetList {
			return nil
		}
		reply := listMessage(
			record("p1", KindSecurityPanel, "Panel"),
			record("s1", KindContactSensor, "Door"),
		)
		return &reply
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	devices, err := registry.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if registry.FindKind(KindSecurityPanel) == nil {
		t.Error("FindKind(security-panel) = nil")
	}
}

func TestRegistryLiveUpdatesFromPushes(t *testing.T) {
	session, hub, _ := newTestSession(t)
	registry := NewRegistry(session)

	hub.setResponder(func(msg Message) *Message {
		if msg.Msg != MsgDeviceInfoDocGetList {
			return nil
		}
		reply := listMessage(record("s1", KindContactSensor, "Door"))
		return &reply
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := registry.Devices(ctx); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	hub.send(updateMessage(`{"general": {"v2": {"zid": "s1", "faulted": true}}}`))

	device, _ := registry.ByZID("s1")
	deadline := time.Now().Add(2 * time.Second)
	for {
		if device.Data()["faulted"] == true {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("push update never reached the registry")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRegistryDevicesSessionClosed(t *testing.T) {
	session, _, _ := newTestSession(t)
	registry := NewRegistry(session)
	session.Close()

	_, err := registry.Devices(context.Background())
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("error = %v, want ErrSessionClosed", err)
	}
}
