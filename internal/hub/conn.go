package hub

// Conn is the handle the hub holds for one client connection. It abstracts
// the underlying transport so the matchmaking core never touches websocket
// internals.
type Conn interface {
	// ID uniquely identifies the connection for the lifetime of the process.
	ID() string
	// Send queues an outbound event for delivery. It must never block; the
	// transport owns its own failure handling.
	Send(event any)
	// Connected reports whether the transport is still usable.
	Connected() bool
}
