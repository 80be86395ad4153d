package rest

import "testing"

func TestURLBuilders(t *testing.T) {
	u := NewURLs("https://api.ring.com")

	tests := []struct {
		got  string
		want string
	}{
		{u.Session(), "https://api.ring.com/clients_api/session"},
		{u.Devices(), "https://api.ring.com/clients_api/ring_devices"},
		{u.History(), "https://api.ring.com/clients_api/doorbots/history"},
		{u.DingsActive(false), "https://api.ring.com/clients_api/dings/active?burst=false"},
		{u.DingsActive(true), "https://api.ring.com/clients_api/dings/active?burst=true"},
		{u.Recording(9), "https://api.ring.com/clients_api/dings/9/recording?disable_redirect=true"},
		{u.DoorbotHealth(42), "https://api.ring.com/clients_api/doorbots/42/health"},
		{u.ChimeHealth(7), "https://api.ring.com/clients_api/chimes/7/health"},
		{u.LiveStream(42), "https://api.ring.com/clients_api/doorbots/42/vod"},
		{u.LightOn(42), "https://api.ring.com/clients_api/doorbots/42/floodlight_light_on"},
		{u.LightOff(42), "https://api.ring.com/clients_api/doorbots/42/floodlight_light_off"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
