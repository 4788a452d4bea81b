package mqtt

import "errors"

var (
	// ErrConnectionFailed wraps the reason the broker could not be reached
	// at startup. Reconnects after that are handled by paho.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected means the broker is currently unreachable.
	ErrNotConnected = errors.New("mqtt: not connected")

	ErrPublishFailed = errors.New("mqtt: publish failed")
	ErrInvalidQoS    = errors.New("mqtt: qos must be 0, 1 or 2")
	ErrInvalidTopic  = errors.New("mqtt: empty topic")
)
