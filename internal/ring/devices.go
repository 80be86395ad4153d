package ring

import (
	"context"
	"fmt"
	"net/http"
)

// Devices fetches the account's device list, grouped by category.
func (c *Client) Devices(ctx context.Context) (*DeviceList, error) {
	// The vendor's category names are awkward; they are renamed on the
	// way through (doorbots become doorbells, stickup_cams become
	// cameras, and so on).
	var raw struct {
		Doorbots           []*Doorbell    `json:"doorbots"`
		StickupCams        []*Camera      `json:"stickup_cams"`
		Chimes             []*Chime       `json:"chimes"`
		BaseStations       []*BaseStation `json:"base_stations"`
		AuthorizedDoorbots []*Device      `json:"authorized_doorbots"`
	}
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().Devices(), &raw); err != nil {
		return nil, fmt.Errorf("ring: listing devices: %w", err)
	}

	list := &DeviceList{
		Doorbells:           raw.Doorbots,
		Cameras:             raw.StickupCams,
		Chimes:              raw.Chimes,
		BaseStations:        raw.BaseStations,
		AuthorisedDoorbells: raw.AuthorizedDoorbots,
	}

	for _, d := range list.Doorbells {
		d.client = c
	}
	for _, d := range list.Cameras {
		d.client = c
	}
	for _, d := range list.Chimes {
		d.client = c
	}
	for _, d := range list.BaseStations {
		d.client = c
	}

	return list, nil
}

// All returns every doorbell, camera, and chime as plain devices.
func (l *DeviceList) All() []*Device {
	out := make([]*Device, 0, len(l.Doorbells)+len(l.Cameras)+len(l.Chimes))
	for _, d := range l.Doorbells {
		out = append(out, &d.Device)
	}
	for _, d := range l.Cameras {
		out = append(out, &d.Device)
	}
	for _, d := range l.Chimes {
		out = append(out, &d.Device)
	}
	return out
}

// doorbotHealth fetches a health report from the doorbot endpoint
// family, which covers doorbells, cameras, and base stations.
func (c *Client) doorbotHealth(ctx context.Context, id int64) (*Health, error) {
	var resp struct {
		DeviceHealth *Health `json:"device_health"`
	}
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().DoorbotHealth(id), &resp); err != nil {
		return nil, fmt.Errorf("ring: fetching device %d health: %w", id, err)
	}
	return resp.DeviceHealth, nil
}

// chimeHealth fetches a health report from the chime endpoint family.
func (c *Client) chimeHealth(ctx context.Context, id int64) (*Health, error) {
	var resp struct {
		DeviceHealth *Health `json:"device_health"`
	}
	if err := c.transport.AuthenticatedRequest(ctx, http.MethodGet, c.transport.URLs().ChimeHealth(id), &resp); err != nil {
		return nil, fmt.Errorf("ring: fetching chime %d health: %w", id, err)
	}
	return resp.DeviceHealth, nil
}

// Health fetches the doorbell's health report.
func (d *Doorbell) Health(ctx context.Context) (*Health, error) {
	return d.client.doorbotHealth(ctx, d.ID)
}

// Health fetches the camera's health report.
func (d *Camera) Health(ctx context.Context) (*Health, error) {
	return d.client.doorbotHealth(ctx, d.ID)
}

// Health fetches the base station's health report.
func (d *BaseStation) Health(ctx context.Context) (*Health, error) {
	return d.client.doorbotHealth(ctx, d.ID)
}

// Health fetches the chime's health report. Chimes have their own
// endpoint family.
func (d *Chime) Health(ctx context.Context) (*Health, error) {
	return d.client.chimeHealth(ctx, d.ID)
}

// LightOn switches the camera's floodlight on.
func (d *Camera) LightOn(ctx context.Context) error {
	if err := d.client.transport.AuthenticatedRequest(ctx, http.MethodPut, d.client.transport.URLs().LightOn(d.ID), nil); err != nil {
		return fmt.Errorf("ring: switching light on for %d: %w", d.ID, err)
	}
	return nil
}

// LightOff switches the camera's floodlight off.
func (d *Camera) LightOff(ctx context.Context) error {
	if err := d.client.transport.AuthenticatedRequest(ctx, http.MethodPut, d.client.transport.URLs().LightOff(d.ID), nil); err != nil {
		return fmt.Errorf("ring: switching light off for %d: %w", d.ID, err)
	}
	return nil
}

// LiveStream starts a live video session for the doorbell.
func (d *Doorbell) LiveStream(ctx context.Context) (*Ding, error) {
	return d.client.liveStream(ctx, d.ID)
}

// LiveStream starts a live video session for the camera.
func (d *Camera) LiveStream(ctx context.Context) (*Ding, error) {
	return d.client.liveStream(ctx, d.ID)
}
