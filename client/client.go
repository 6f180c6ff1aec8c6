// ABOUTME: Public facade over the agent communication reactor
// ABOUTME: Create/SendMessage/AddRequest/AwaitReactor, one reactor per client

// Package client is the public surface of the agent communication client:
// Create, SendMessage, AddRequest, and AwaitReactor. It owns exactly one
// reactor.ReactorCore.
package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoogleCloudPlatform/agentcommunication-client/connectionid"
	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
	"github.com/GoogleCloudPlatform/agentcommunication-client/internal/reactor"
	"github.com/GoogleCloudPlatform/agentcommunication-client/transport"
)

// Sink is invoked once per inbound frame, in stream-arrival order. It must
// not call SendMessage from the same goroutine; AddRequest is safe to call
// from within it.
type Sink = reactor.Sink

// Options configures retry/timeout behavior of the underlying reactor.
// Zero values fall back to the reactor's pinned defaults.
type Options struct {
	MaxAttempts         int
	AckTimeout          time.Duration
	RegistrationTimeout time.Duration
	OutboundQueueSize   int
	Logger              *slog.Logger
}

func (o Options) toReactorOptions() reactor.Options {
	return reactor.Options{
		MaxAttempts:         o.MaxAttempts,
		AckTimeout:          o.AckTimeout,
		RegistrationTimeout: o.RegistrationTimeout,
		OutboundQueueSize:   o.OutboundQueueSize,
		Logger:              o.Logger,
	}
}

// Client is the facade a caller drives: Create a connection, SendMessage
// (blocking, retried), AddRequest (fire-and-forget), AwaitReactor (block
// for termination).
type Client struct {
	core *reactor.ReactorCore
}

// Create constructs the reactor over st, starts it, performs registration,
// and returns once registration succeeds or fails.
func Create(ctx context.Context, st transport.StreamTransport, connID connectionid.ConnectionId, sink Sink, opts Options) (*Client, error) {
	core := reactor.New(st, connID, sink, opts.toReactorOptions())
	if err := core.Start(ctx); err != nil {
		return nil, err
	}
	return &Client{core: core}, nil
}

// SendMessage sends body, blocking until it is acknowledged, the retry
// budget is exhausted, or the stream terminates.
func (c *Client) SendMessage(body *frame.Body) error {
	return c.core.SendMessage(body)
}

// AddRequest enqueues a caller-constructed frame verbatim and returns once
// queued, without waiting for an ack.
func (c *Client) AddRequest(f *frame.Frame) error {
	return c.core.AddRequest(f)
}

// AwaitReactor blocks until the reactor reaches TERMINATED and returns the
// captured stream status (nil on a clean close).
func (c *Client) AwaitReactor() error {
	return c.core.AwaitReactor()
}

// Close issues a local half-close and waits for the reactor to terminate.
func (c *Client) Close() error {
	if err := c.core.CloseSend(); err != nil {
		return err
	}
	return c.core.AwaitReactor()
}

// State returns the underlying reactor's lifecycle state, for diagnostics.
func (c *Client) State() string {
	return c.core.State()
}
