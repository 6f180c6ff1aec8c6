// ABOUTME: In-memory fake control-plane peer for reactor tests
// ABOUTME: Records requests, can delay acks, and can push server-initiated frames

// Package fakeserver is a test-only collaborator standing in for the
// control-plane's stream reactor: it records requests, can optionally delay
// each response, and can emit server-initiated payloads on demand. It is
// wired directly over channels instead of a real network, so reactor tests
// stay fast and deterministic.
package fakeserver

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
	"github.com/GoogleCloudPlatform/agentcommunication-client/transport"
)

// ErrClosed is returned by the client-side transport once the pair has
// been closed.
var ErrClosed = errors.New("fakeserver: transport closed")

// clientTransport implements transport.StreamTransport over two channels
// connected to a Server.
type clientTransport struct {
	toServer   chan *frame.Frame
	fromServer chan *frame.Frame

	closeOnce sync.Once
	closed    chan struct{}

	termOnce sync.Once
	termCh   chan struct{}
	termErr  error

	mu      sync.Mutex
	headers map[string]string
}

var _ transport.StreamTransport = (*clientTransport)(nil)

func (t *clientTransport) Start(_ context.Context, headers map[string]string) error {
	t.mu.Lock()
	t.headers = headers
	t.mu.Unlock()
	return nil
}

func (t *clientTransport) Write(f *frame.Frame, cb transport.WriteCallback) {
	go func() {
		select {
		case t.toServer <- f:
			cb(nil)
		case <-t.closed:
			cb(ErrClosed)
		}
	}()
}

func (t *clientTransport) Read(cb transport.ReadCallback) {
	go func() {
		select {
		case f, ok := <-t.fromServer:
			if !ok {
				t.setTerminal(nil)
				cb(nil, io.EOF)
				return
			}
			cb(f, nil)
		case <-t.closed:
			t.setTerminal(nil)
			cb(nil, io.EOF)
		}
	}()
}

func (t *clientTransport) CloseSend() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *clientTransport) AwaitTerminalStatus() error {
	<-t.termCh
	return t.termErr
}

func (t *clientTransport) setTerminal(err error) {
	t.termOnce.Do(func() {
		t.termErr = err
		close(t.termCh)
	})
}

// Headers returns the stream-initiation metadata the reactor passed to
// Start, once it has started.
func (t *clientTransport) Headers() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.headers
}

// Server is the test-controllable peer: it records every frame it
// receives, acknowledges inbound payloads (after an optional configured
// delay), and lets the test push server-initiated payloads to the client.
type Server struct {
	fromClient chan *frame.Frame
	toClient   chan *frame.Frame
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu       sync.Mutex
	requests []*frame.Frame
	delay    time.Duration
}

// NewPair builds a connected (client transport, fake server) pair. Call
// server.Run() before starting the reactor.
func NewPair() (transport.StreamTransport, *Server) {
	toServer := make(chan *frame.Frame, 64)
	toClient := make(chan *frame.Frame, 64)

	ct := &clientTransport{
		toServer:   toServer,
		fromServer: toClient,
		closed:     make(chan struct{}),
		termCh:     make(chan struct{}),
	}
	srv := &Server{
		fromClient: toServer,
		toClient:   toClient,
		stopCh:     make(chan struct{}),
	}
	return ct, srv
}

// SetDelay configures how long the server waits before acking each inbound
// payload.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Run starts the server's receive loop: every inbound payload is recorded
// and acked (after the configured delay); every inbound ack is only
// recorded.
func (s *Server) Run() {
	go func() {
		for {
			select {
			case f, ok := <-s.fromClient:
				if !ok {
					return
				}
				s.record(f)
				if f.IsAck() {
					continue
				}
				s.replyAsync(f)
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *Server) record(f *frame.Frame) {
	s.mu.Lock()
	s.requests = append(s.requests, f)
	s.mu.Unlock()
}

func (s *Server) replyAsync(req *frame.Frame) {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()

	go func() {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-s.stopCh:
				return
			}
		}
		ack := frame.NewAckFrame(req.GetMessageID(), 0, "")
		select {
		case s.toClient <- ack:
		case <-s.stopCh:
		}
	}()
}

// SendPayload pushes a server-initiated payload frame to the client.
func (s *Server) SendPayload(messageID string, body *frame.Body) {
	s.Send(frame.NewBodyFrame(messageID, body))
}

// Send pushes an arbitrary frame to the client, verbatim.
func (s *Server) Send(f *frame.Frame) {
	select {
	case s.toClient <- f:
	case <-s.stopCh:
	}
}

// Requests returns a snapshot of every frame the server has received so
// far, in arrival order.
func (s *Server) Requests() []*frame.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*frame.Frame, len(s.requests))
	copy(out, s.requests)
	return out
}

// Payloads returns only the payload (non-ack) frames received so far.
func (s *Server) Payloads() []*frame.Frame {
	var out []*frame.Frame
	for _, f := range s.Requests() {
		if !f.IsAck() {
			out = append(out, f)
		}
	}
	return out
}

// Acks returns only the ack frames received so far.
func (s *Server) Acks() []*frame.Frame {
	var out []*frame.Frame
	for _, f := range s.Requests() {
		if f.IsAck() {
			out = append(out, f)
		}
	}
	return out
}

// CloseClientSide forces the client's read to observe end-of-stream,
// simulating the server ending the stream.
func (s *Server) CloseClientSide() {
	close(s.toClient)
}

// Stop halts the server's receive loop.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
