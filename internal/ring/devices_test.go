package ring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

const deviceListBody = `{
	"doorbots": [{"id": 11, "description": "Front Door", "kind": "lpd_v2", "battery_life": "71"}],
	"authorized_doorbots": [{"id": 12, "description": "Shared Door", "kind": "lpd_v1"}],
	"stickup_cams": [{"id": 21, "description": "Driveway", "kind": "hp_cam_v2", "battery_life": 93}],
	"chimes": [{"id": 31, "description": "Kitchen", "kind": "chime"}],
	"base_stations": [{"id": 41, "description": "Hub", "kind": "base_station_v1", "location_id": "loc-1"}]
}`

func TestDevicesCategorisation(t *testing.T) {
	client, _ := newTestClient(func(method, url string) (string, error) {
		return deviceListBody, nil
	})

	list, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	if len(list.Doorbells) != 1 || list.Doorbells[0].Description != "Front Door" {
		t.Errorf("doorbells = %+v", list.Doorbells)
	}
	if len(list.Cameras) != 1 || list.Cameras[0].ID != 21 {
		t.Errorf("cameras = %+v", list.Cameras)
	}
	if len(list.Chimes) != 1 || len(list.BaseStations) != 1 || len(list.AuthorisedDoorbells) != 1 {
		t.Errorf("chimes/baseStations/authorisedDoorbells = %d/%d/%d",
			len(list.Chimes), len(list.BaseStations), len(list.AuthorisedDoorbells))
	}
	if got := len(list.All()); got != 3 {
		t.Errorf("All() = %d devices, want 3 (doorbells + cameras + chimes)", got)
	}
}

func TestBatteryLevel(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{"number", `93`, 93, true},
		{"quoted string", `"71"`, 71, true},
		{"null", `null`, 0, false},
		{"absent", ``, 0, false},
		{"garbage", `"full"`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{BatteryLife: json.RawMessage(tt.raw)}
			got, ok := d.BatteryLevel()
			if ok != tt.valid || got != tt.want {
				t.Errorf("BatteryLevel() = %v, %v; want %v, %v", got, ok, tt.want, tt.valid)
			}
		})
	}
}

func TestHealthEndpointsPerKind(t *testing.T) {
	healthBody := `{"device_health": {
		"id": 11,
		"wifi_name": "HomeNet",
		"battery_percentage": 71,
		"latest_signal_strength": -48,
		"latest_signal_category": "good",
		"updated_at": "2018-02-03T18:57:50Z"
	}}`

	client, transport := newTestClient(func(method, url string) (string, error) {
		if strings.Contains(url, "ring_devices") {
			return deviceListBody, nil
		}
		if strings.Contains(url, "/health") {
			return healthBody, nil
		}
		return "", fmt.Errorf("unexpected request %s %s", method, url)
	})

	ctx := context.Background()
	list, err := client.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	health, err := list.Doorbells[0].Health(ctx)
	if err != nil {
		t.Fatalf("doorbell Health() error: %v", err)
	}
	if health.WifiName != "HomeNet" {
		t.Errorf("WifiName = %q", health.WifiName)
	}
	want := time.Date(2018, 2, 3, 18, 57, 50, 0, time.UTC)
	if !health.UpdatedAt.Equal(want) {
		t.Errorf("UpdatedAt = %v, want %v", health.UpdatedAt, want)
	}
	if transport.callCount("/clients_api/doorbots/11/health") != 1 {
		t.Error("doorbell health should use the doorbots endpoint")
	}

	if _, err := list.Chimes[0].Health(ctx); err != nil {
		t.Fatalf("chime Health() error: %v", err)
	}
	if transport.callCount("/clients_api/chimes/31/health") != 1 {
		t.Error("chime health should use the chimes endpoint")
	}

	if _, err := list.BaseStations[0].Health(ctx); err != nil {
		t.Fatalf("base station Health() error: %v", err)
	}
	if transport.callCount("/clients_api/doorbots/41/health") != 1 {
		t.Error("base station health should use the doorbots endpoint")
	}
}

func TestCameraLightControl(t *testing.T) {
	client, transport := newTestClient(func(method, url string) (string, error) {
		if strings.Contains(url, "ring_devices") {
			return deviceListBody, nil
		}
		return "", nil
	})

	ctx := context.Background()
	list, err := client.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices() error: %v", err)
	}

	camera := list.Cameras[0]
	if err := camera.LightOn(ctx); err != nil {
		t.Fatalf("LightOn() error: %v", err)
	}
	if err := camera.LightOff(ctx); err != nil {
		t.Fatalf("LightOff() error: %v", err)
	}

	if transport.callCount("PUT "+testRoot+"/clients_api/doorbots/21/floodlight_light_on") != 1 {
		t.Error("LightOn should PUT the floodlight_light_on endpoint")
	}
	if transport.callCount("PUT "+testRoot+"/clients_api/doorbots/21/floodlight_light_off") != 1 {
		t.Error("LightOff should PUT the floodlight_light_off endpoint")
	}
}
