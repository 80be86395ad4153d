// Package alarm implements the realtime session protocol for Ring
// alarm hubs.
//
// This package manages:
//   - A long-lived websocket session per location, established lazily
//     and re-established automatically after socket failures
//   - Sequence-numbered outbound commands over a push-oriented socket,
//     with request/response correlation by message type
//   - A live device registry merged incrementally from full list
//     responses and partial update pushes
//   - The security panel command surface: disarm, arm home, arm away
//
// # Architecture
//
// Session owns the socket lifecycle and message routing. A dispatcher
// owns the write side of one connection and its sequence counter,
// which restarts at 1 on every reconnect. Registry subscribes to the
// session's inbound stream and maintains the device view; Alarm ties
// the pieces together for one location.
//
// Correlation is by message type, not request identity: if several
// callers await the same response type concurrently, one arrival
// satisfies all of them. The hub protocol offers nothing better to
// correlate on.
//
// # Usage
//
//	a := alarm.New(restClient, cfg.Ring.ConnectionsURL, locationID, cfg.Alarm.GetReconnectDelay())
//	defer a.Close()
//
//	devices, err := a.Devices(ctx)
//	if err != nil {
//	    return err
//	}
//	err = a.ArmAway(ctx, nil)
package alarm
