package aiofetch

import "time"

// Engine capacities. Everything is sized once at startup; no buffer grows
// past these limits at runtime.
const (
	// DefaultSlots is the number of concurrent in-flight requests.
	DefaultSlots = 4

	// MaxHeaders caps the stored response header pairs; extra pairs are
	// silently dropped.
	MaxHeaders = 16

	// HeaderLineBufSize caps a single response header line; overlong
	// lines are truncated.
	HeaderLineBufSize = 512

	// BodyBufSize caps the response body; a longer body completes the
	// request with a truncated body.
	BodyBufSize = 4096
)

// DefaultTimeout applies to requests submitted without an explicit
// timeout configuration.
const DefaultTimeout = 10 * time.Second

// per-slot protocol states
const (
	stateIdle = iota
	stateConnecting
	stateSending
	stateRecvHeaders
	stateRecvBody
	stateComplete
	stateError
)
