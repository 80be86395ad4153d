// Package rest implements the authenticated HTTP transport for the
// Ring client API.
//
// This package manages:
//   - Two-step authentication: a password-grant OAuth call followed by
//     a device session registration
//   - A token store that serialises concurrent acquisition attempts
//     onto a single in-flight request
//   - A retry policy tuned to the vendor's failure modes: expired
//     sessions (401), transient asset conditions reported as 404
//     bodies with vendor error codes, and network resolution failures
//
// All response bodies are decoded with number preservation
// (json.Number) because Ring identifiers exceed float64 precision.
//
// Usage:
//
//	client := rest.New(cfg.Ring)
//	client.SetLogger(log)
//
//	var devices ring.DeviceList
//	err := client.AuthenticatedRequest(ctx, "GET", client.URLs().Devices(), &devices)
package rest
