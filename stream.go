package aiofetch

// Stream is the byte-stream capability the engine drives. Every call must
// return without blocking; the pump loop only acts on bytes a stream has
// already reported as available.
type Stream interface {
	// Connect starts or continues a connection attempt. A false result is
	// a definitive failure; true means connected or still in progress,
	// with Connected reporting the outcome on later cycles.
	Connect(host string, port int) bool

	// Connected reports whether the stream currently holds a live
	// connection.
	Connected() bool

	// Available reports the number of bytes ready to read.
	Available() int

	// ReadByte consumes one available byte.
	ReadByte() (byte, error)

	// Write queues p for transmission and reports the bytes accepted.
	Write(p []byte) (int, error)

	// Close abruptly disconnects. A closed stream may be connected again
	// for a later request on the same slot.
	Close() error
}

// Transport creates streams for pool-owned connections. Streams handed
// out here are closed and dropped by the pool on every terminal path.
type Transport interface {
	NewStream(useTLS bool) (Stream, error)
}
