package ring

import "errors"

var (
	// ErrStreamUnavailable indicates no live stream ding appeared
	// within the allowed number of polls after requesting one.
	ErrStreamUnavailable = errors.New("ring: live stream did not become available")
)
