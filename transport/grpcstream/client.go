// ABOUTME: gRPC-backed StreamTransport implementation
// ABOUTME: Owns the grpc.ClientConn, the bidi stream, TLS, and keepalive

// Package grpcstream is the concrete StreamTransport backed by a real
// google.golang.org/grpc bidirectional stream. It is the only piece of this
// module that knows about HTTP/2, TLS, and keepalive; the reactor core
// never imports it directly, since transport.StreamTransport decouples the
// two.
package grpcstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
	"github.com/GoogleCloudPlatform/agentcommunication-client/transport"
)

// DialOptions configures how a ClientTransport connects.
type DialOptions struct {
	// Insecure disables transport security (for tests and local fake
	// servers only).
	Insecure bool
	// TLSCredentials supplies transport credentials when Insecure is false.
	TLSCredentials credentials.TransportCredentials
	// KeepaliveTime/KeepaliveTimeout configure the gRPC connection's
	// keepalive pings.
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
	Logger           *slog.Logger
}

func (o DialOptions) withDefaults() DialOptions {
	if o.KeepaliveTime == 0 {
		o.KeepaliveTime = 60 * time.Second
	}
	if o.KeepaliveTimeout == 0 {
		o.KeepaliveTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ClientTransport is a transport.StreamTransport backed by a grpc.ClientConn.
type ClientTransport struct {
	target string
	opts   DialOptions

	conn   *grpc.ClientConn
	stream grpc.ClientStream
	logger *slog.Logger

	writeMu sync.Mutex // serializes SendMsg calls issued by the reactor

	termOnce sync.Once
	termCh   chan struct{}
	termErr  error
}

// Dial opens a grpc.ClientConn to target. The stream itself is opened by
// Start, once a ConnectionId's headers are available.
func Dial(target string, opts DialOptions) (*ClientTransport, error) {
	opts = opts.withDefaults()

	var creds credentials.TransportCredentials
	if opts.Insecure {
		creds = insecure.NewCredentials()
	} else if opts.TLSCredentials != nil {
		creds = opts.TLSCredentials
	} else {
		return nil, errors.New("grpcstream: TLSCredentials required when Insecure is false")
	}

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    opts.KeepaliveTime,
			Timeout: opts.KeepaliveTimeout,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcstream: dial %s: %w", target, err)
	}

	return &ClientTransport{
		target: target,
		opts:   opts,
		conn:   conn,
		logger: opts.Logger,
		termCh: make(chan struct{}),
	}, nil
}

var _ transport.StreamTransport = (*ClientTransport)(nil)

// Start opens the bidirectional stream, attaching headers as outgoing
// gRPC metadata.
func (t *ClientTransport) Start(ctx context.Context, headers map[string]string) error {
	md := metadata.New(headers)
	ctx = metadata.NewOutgoingContext(ctx, md)

	stream, err := t.conn.NewStream(ctx, &StreamDesc, FullMethod, grpc.CallContentSubtype(codecName))
	if err != nil {
		return fmt.Errorf("grpcstream: open stream: %w", err)
	}
	t.stream = stream
	return nil
}

// Write sends f on the stream. cb fires from a dedicated goroutine.
func (t *ClientTransport) Write(f *frame.Frame, cb transport.WriteCallback) {
	go func() {
		t.writeMu.Lock()
		err := t.stream.SendMsg(f)
		t.writeMu.Unlock()
		if err != nil && !errors.Is(err, io.EOF) {
			t.logger.Debug("grpcstream: write error", "error", err)
		}
		cb(err)
	}()
}

// Read arms a single receive. cb fires from a dedicated goroutine once the
// next frame (or terminal error) is available.
func (t *ClientTransport) Read(cb transport.ReadCallback) {
	go func() {
		f := new(frame.Frame)
		err := t.stream.RecvMsg(f)
		if err != nil {
			t.setTerminal(classifyErr(err))
			cb(nil, err)
			return
		}
		cb(f, nil)
	}()
}

// CloseSend half-closes the local write side of the stream.
func (t *ClientTransport) CloseSend() error {
	return t.stream.CloseSend()
}

// AwaitTerminalStatus blocks until the stream has a final status.
func (t *ClientTransport) AwaitTerminalStatus() error {
	<-t.termCh
	return t.termErr
}

func (t *ClientTransport) setTerminal(err error) {
	t.termOnce.Do(func() {
		t.termErr = err
		close(t.termCh)
	})
}

// classifyErr normalizes a terminal gRPC error: io.EOF means a clean peer
// half-close and is reported as nil (no error).
func classifyErr(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
		return nil
	}
	return err
}

// Close releases the underlying connection. Safe to call after
// AwaitTerminalStatus returns.
func (t *ClientTransport) Close() error {
	return t.conn.Close()
}
