// Package ring exposes the account-level Ring API surface: device
// listing with per-category types, health reports, event history,
// active dings, live stream startup, floodlight control, activity
// polling, and alarm location discovery.
//
// The vendor's category names are translated on the way through
// (doorbots to doorbells, stickup_cams to cameras, base_stations to
// baseStations) and its microsecond epoch timestamps are converted to
// time.Time.
package ring
