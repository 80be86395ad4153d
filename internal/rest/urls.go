package rest

import "fmt"

// URLs builds Ring client API endpoint URLs from a server root.
type URLs struct {
	root string
}

// NewURLs creates a URL builder rooted at serverRoot (no trailing slash).
func NewURLs(serverRoot string) URLs {
	return URLs{root: serverRoot}
}

// Session is the device session registration endpoint.
func (u URLs) Session() string {
	return u.root + "/clients_api/session"
}

// Devices lists all devices on the account.
func (u URLs) Devices() string {
	return u.root + "/clients_api/ring_devices"
}

// History lists recent doorbell and camera events.
func (u URLs) History() string {
	return u.root + "/clients_api/doorbots/history"
}

// DingsActive lists rings and motions currently in progress. Burst
// asks the service to answer from its cache rather than fanning out
// to devices.
func (u URLs) DingsActive(burst bool) string {
	return fmt.Sprintf("%s/clients_api/dings/active?burst=%t", u.root, burst)
}

// Recording resolves a past ding to its stored video URL.
func (u URLs) Recording(dingID int64) string {
	return fmt.Sprintf("%s/clients_api/dings/%d/recording?disable_redirect=true", u.root, dingID)
}

// DoorbotHealth reports health for a doorbell or camera.
func (u URLs) DoorbotHealth(id int64) string {
	return fmt.Sprintf("%s/clients_api/doorbots/%d/health", u.root, id)
}

// ChimeHealth reports health for a chime.
func (u URLs) ChimeHealth(id int64) string {
	return fmt.Sprintf("%s/clients_api/chimes/%d/health", u.root, id)
}

// LiveStream requests a live video session for a doorbell or camera.
func (u URLs) LiveStream(id int64) string {
	return fmt.Sprintf("%s/clients_api/doorbots/%d/vod", u.root, id)
}

// LightOn turns on the floodlight of a camera.
func (u URLs) LightOn(id int64) string {
	return fmt.Sprintf("%s/clients_api/doorbots/%d/floodlight_light_on", u.root, id)
}

// LightOff turns off the floodlight of a camera.
func (u URLs) LightOff(id int64) string {
	return fmt.Sprintf("%s/clients_api/doorbots/%d/floodlight_light_off", u.root, id)
}
