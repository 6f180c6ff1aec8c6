// ABOUTME: Full-duplex stream abstraction the reactor core depends on
// ABOUTME: Decouples the reactor from any concrete RPC transport

// Package transport defines the minimal full-duplex stream abstraction the
// reactor core depends on. The RPC transport itself (HTTP/2 streaming
// runtime, TLS, keepalive) is an external collaborator; the reactor only
// ever talks to this interface.
package transport

import (
	"context"

	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
)

// WriteCallback is invoked when an asynchronous write completes, with a
// non-nil err if the write failed.
type WriteCallback func(err error)

// ReadCallback is invoked when an asynchronous read completes. f is nil and
// err is non-nil (often io.EOF) once the stream has no more frames to
// deliver.
type ReadCallback func(f *frame.Frame, err error)

// StreamTransport is the full-duplex typed stream the reactor core drives.
// Implementations forbid overlapping writes (Write must not be called again
// until the previous WriteCallback has fired) but allow a write and a read
// to be in flight concurrently.
type StreamTransport interface {
	// Start opens the stream, injecting headers as stream-initiation
	// metadata. Must be called exactly once before any other method.
	Start(ctx context.Context, headers map[string]string) error

	// Write asynchronously sends f. cb fires exactly once, from a
	// transport-owned goroutine, once the write completes or fails. At
	// most one Write may be outstanding at a time.
	Write(f *frame.Frame, cb WriteCallback)

	// Read asynchronously arms a single read. cb fires exactly once, from
	// a transport-owned goroutine, with the next inbound frame or a
	// terminal error. The reactor re-arms by calling Read again from
	// within cb.
	Read(cb ReadCallback)

	// CloseSend half-closes the local write side. Safe to call more than
	// once.
	CloseSend() error

	// AwaitTerminalStatus blocks until the stream reaches a final status
	// (peer close, local close, or transport-fatal error) and returns it.
	AwaitTerminalStatus() error
}
