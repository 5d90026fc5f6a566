package core

// Frame is a raw encoded message on its way to a peer.
type Frame []byte

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues a frame without blocking. It fails when the peer's
	// send buffer is full or the connection is closed; callers treat that
	// as a delivery failure, not a fatal condition.
	TrySend(Frame) error
	Close()
}
