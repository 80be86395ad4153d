package alarm

import "errors"

var (
	// ErrSessionClosed indicates the session was closed and no further
	// connections will be made.
	ErrSessionClosed = errors.New("alarm: session closed")

	// ErrVolumeOutOfRange indicates a volume outside [0, 1].
	ErrVolumeOutOfRange = errors.New("alarm: volume must be between 0 and 1")

	// ErrVolumeUnsupported indicates the device kind does not accept a
	// volume setting.
	ErrVolumeUnsupported = errors.New("alarm: device does not support volume")

	// ErrNoSecurityPanel indicates the location has no security panel
	// device to receive mode changes.
	ErrNoSecurityPanel = errors.New("alarm: no security panel found")
)
