package connection

import "errors"

// Status of the connection as shown to the user.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusDisconnected // Gave up: the page must be reloaded.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

var (
	// ErrNotConnected is returned by Send when no channel is open. Actions are
	// never queued for later.
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionLost is reported with StatusReconnecting and
	// StatusDisconnected.
	ErrConnectionLost = errors.New("connection lost")

	ErrAlreadyConnected = errors.New("already connected")
)
