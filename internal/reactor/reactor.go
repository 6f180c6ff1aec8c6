// ABOUTME: Client-side reactor driving one full-duplex agent stream
// ABOUTME: Serializes writes, correlates acks, retries on timeout, and drains on termination

// Package reactor implements the bidirectional-streaming client reactor:
// the state machine that owns a single full-duplex stream, serializes
// outbound writes, demultiplexes inbound frames into acknowledgements vs.
// payload deliveries, matches acknowledgements to pending sends with a
// deadline, and retries sends on timeout up to a fixed bound.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/agentcommunication-client/connectionid"
	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
	"github.com/GoogleCloudPlatform/agentcommunication-client/transport"
)

// Sentinel errors surfaced to callers.
var (
	// ErrDeadlineExceeded is returned by SendMessage when it exhausts its
	// retry budget without receiving an ack.
	ErrDeadlineExceeded = errors.New("acsreactor: deadline exceeded waiting for ack")
	// ErrFailedPrecondition is returned when an operation is attempted
	// before registration has completed.
	ErrFailedPrecondition = errors.New("acsreactor: registration has not completed")
	// ErrUnavailable is returned when an operation is attempted after the
	// stream has terminated.
	ErrUnavailable = errors.New("acsreactor: stream is terminated")
	// ErrConnectionClosed indicates the stream ended via a clean
	// half-close rather than a transport-level error.
	ErrConnectionClosed = errors.New("acsreactor: connection closed")
)

// state is the reactor's position in the INIT -> REGISTERING -> RUNNING ->
// DRAINING -> TERMINATED lifecycle.
type state int

func (s state) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateRegistering:
		return "REGISTERING"
	case stateRunning:
		return "RUNNING"
	case stateDraining:
		return "DRAINING"
	case stateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

const (
	stateInit state = iota
	stateRegistering
	stateRunning
	stateDraining
	stateTerminated
)

// DefaultMaxAttempts is the maximum number of send attempts (1 initial plus
// up to 4 retries) per SendMessage call.
const DefaultMaxAttempts = 5

// DefaultAckTimeout is the per-attempt deadline for receiving an ack.
const DefaultAckTimeout = 2 * time.Second

// DefaultRegistrationTimeout bounds how long Start waits for the
// registration ack before failing Create.
const DefaultRegistrationTimeout = 10 * time.Second

// DefaultOutboundQueueCapacity bounds the FIFO outbound queue: producers
// block rather than drop once it is full.
const DefaultOutboundQueueCapacity = 256

// Options configures a ReactorCore.
type Options struct {
	MaxAttempts         int
	AckTimeout          time.Duration
	RegistrationTimeout time.Duration
	OutboundQueueSize   int
	Logger              *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.AckTimeout <= 0 {
		o.AckTimeout = DefaultAckTimeout
	}
	if o.RegistrationTimeout <= 0 {
		o.RegistrationTimeout = DefaultRegistrationTimeout
	}
	if o.OutboundQueueSize <= 0 {
		o.OutboundQueueSize = DefaultOutboundQueueCapacity
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Sink is invoked once per inbound frame, in stream-arrival order. It must
// not call back into SendMessage on the same goroutine.
type Sink func(*frame.Frame)

// pendingSend is the bookkeeping record for one outstanding SendMessage
// call: the ack, once correlated, is delivered on ackCh.
type pendingSend struct {
	ackCh chan *frame.Status
}

// ReactorCore is the single-stream state machine that owns one stream's
// handle and pending-send bookkeeping. A Client owns exactly one
// ReactorCore.
type ReactorCore struct {
	opts      Options
	transport transport.StreamTransport
	connID    connectionid.ConnectionId
	sink      Sink
	logger    *slog.Logger

	mu      sync.Mutex
	state   state
	pending map[string]*pendingSend

	outbound chan *frame.Frame

	termOnce sync.Once
	termCh   chan struct{}
	termErr  error

	regOnce sync.Once
	regCh   chan error
}

// New constructs a ReactorCore in state INIT. Start must be called to begin
// registration.
func New(st transport.StreamTransport, connID connectionid.ConnectionId, sink Sink, opts Options) *ReactorCore {
	opts = opts.withDefaults()
	return &ReactorCore{
		opts:      opts,
		transport: st,
		connID:    connID,
		sink:      sink,
		logger:    opts.Logger,
		state:     stateInit,
		pending:   make(map[string]*pendingSend),
		outbound:  make(chan *frame.Frame, opts.OutboundQueueSize),
		termCh:    make(chan struct{}),
		regCh:     make(chan error, 1),
	}
}

// Start opens the stream, launches the writer and reader loops, and
// performs registration. It blocks the caller until registration succeeds
// or fails.
func (r *ReactorCore) Start(ctx context.Context) error {
	r.setState(stateRegistering)

	if err := r.transport.Start(ctx, r.connID.Headers()); err != nil {
		r.terminate(fmt.Errorf("starting stream: %w", err))
		return err
	}

	go r.writeLoop()
	go r.readLoop()

	return r.register()
}

// register sends the distinguished registration payload and waits for its
// ack.
func (r *ReactorCore) register() error {
	messageID := uuid.New().String()
	p := &pendingSend{ackCh: make(chan *frame.Status, 1)}

	r.mu.Lock()
	r.pending[messageID] = p
	r.mu.Unlock()

	regFrame := frame.NewRegistrationFrame(messageID, &frame.Body{})

	if err := r.enqueue(regFrame); err != nil {
		r.clearPending(messageID)
		return r.failRegistration(err)
	}

	select {
	case <-p.ackCh:
		r.logger.Info("registration complete", "connection_id", r.connID.String())
		r.setState(stateRunning)
		r.finishRegistration(nil)
		return nil
	case <-time.After(r.opts.RegistrationTimeout):
		r.clearPending(messageID)
		return r.failRegistration(ErrDeadlineExceeded)
	case <-r.termCh:
		r.clearPending(messageID)
		return r.failRegistration(r.terminationError())
	}
}

func (r *ReactorCore) failRegistration(err error) error {
	r.finishRegistration(err)
	return err
}

func (r *ReactorCore) finishRegistration(err error) {
	r.regOnce.Do(func() {
		r.regCh <- err
		close(r.regCh)
	})
}

// SendMessage sends body and blocks until it is acknowledged. It assigns a
// fresh message ID, enqueues the payload, and retries up to
// Options.MaxAttempts total attempts on per-attempt ack timeout, reusing the
// same message ID across attempts so a late ack for an earlier attempt
// still resolves the call.
func (r *ReactorCore) SendMessage(body *frame.Body) error {
	if err := r.precondition(); err != nil {
		return err
	}

	messageID := uuid.New().String()
	p := &pendingSend{ackCh: make(chan *frame.Status, 1)}

	r.mu.Lock()
	r.pending[messageID] = p
	r.mu.Unlock()
	defer r.clearPending(messageID)

	attemptsRemaining := r.opts.MaxAttempts
	payload := frame.NewBodyFrame(messageID, body)

	for {
		if err := r.enqueue(payload); err != nil {
			return err
		}
		attemptsRemaining--

		select {
		case <-p.ackCh:
			return nil
		case <-time.After(r.opts.AckTimeout):
			if attemptsRemaining <= 0 {
				r.logger.Warn("send deadline exceeded", "message_id", messageID)
				return ErrDeadlineExceeded
			}
			r.logger.Debug("retrying send after ack timeout", "message_id", messageID, "attempts_remaining", attemptsRemaining)
			continue
		case <-r.termCh:
			return r.terminationError()
		}
	}
}

// AddRequest enqueues a caller-constructed frame verbatim and returns once
// it is queued, without waiting for an ack.
func (r *ReactorCore) AddRequest(f *frame.Frame) error {
	if err := r.precondition(); err != nil {
		return err
	}
	return r.enqueue(f)
}

// AwaitReactor blocks until the reactor reaches TERMINATED and returns the
// captured stream status.
func (r *ReactorCore) AwaitReactor() error {
	<-r.termCh
	return r.termErr
}

// State returns the reactor's current lifecycle state name, for logging and
// diagnostics.
func (r *ReactorCore) State() string {
	r.mu.Lock()
	s := r.state
	r.mu.Unlock()
	return s.String()
}

// CloseSend issues a local half-close and transitions to DRAINING.
func (r *ReactorCore) CloseSend() error {
	r.setState(stateDraining)
	return r.transport.CloseSend()
}

func (r *ReactorCore) precondition() error {
	r.mu.Lock()
	s := r.state
	r.mu.Unlock()

	switch s {
	case stateTerminated:
		return ErrUnavailable
	case stateInit, stateRegistering:
		return ErrFailedPrecondition
	default:
		return nil
	}
}

func (r *ReactorCore) setState(s state) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// enqueue pushes f onto the outbound FIFO, blocking if it is full, but
// unblocking early if the reactor terminates first.
func (r *ReactorCore) enqueue(f *frame.Frame) error {
	select {
	case r.outbound <- f:
		return nil
	case <-r.termCh:
		return r.terminationError()
	}
}

// writeLoop is the single dedicated writer: at most one outbound write is
// ever in flight. It pops the next frame once the previous write's
// completion callback has fired.
func (r *ReactorCore) writeLoop() {
	for {
		select {
		case f := <-r.outbound:
			done := make(chan error, 1)
			r.transport.Write(f, func(err error) { done <- err })
			if err := <-done; err != nil {
				r.logger.Debug("write failed", "error", err, "message_id", f.GetMessageID())
			}
		case <-r.termCh:
			r.drainOutbound()
			return
		}
	}
}

// drainOutbound issues best-effort writes for anything still queued once
// the reactor is terminating.
func (r *ReactorCore) drainOutbound() {
	for {
		select {
		case f := <-r.outbound:
			done := make(chan error, 1)
			r.transport.Write(f, func(err error) { done <- err })
			<-done
		default:
			return
		}
	}
}

// readLoop arms a persistent read and dispatches each inbound frame,
// re-arming after each one.
func (r *ReactorCore) readLoop() {
	var onFrame transport.ReadCallback
	onFrame = func(f *frame.Frame, err error) {
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Peer half-closed cleanly; not a failure.
				r.terminate(nil)
				return
			}
			r.terminate(err)
			return
		}
		r.dispatch(f)
		r.transport.Read(onFrame)
	}
	r.transport.Read(onFrame)
}

// dispatch routes an inbound frame: acks are correlated against the pending
// table, payloads are delivered to the sink and acked back.
func (r *ReactorCore) dispatch(f *frame.Frame) {
	if f.IsAck() {
		r.handleAck(f)
		r.deliverToSink(f)
		return
	}
	r.deliverToSink(f)
	r.sendAck(f.GetMessageID())
}

// handleAck correlates an inbound ack against the pending table. Acks for
// an unknown or already-resolved message ID are dropped rather than treated
// as an error.
func (r *ReactorCore) handleAck(f *frame.Frame) {
	messageID := f.GetMessageID()

	r.mu.Lock()
	p, ok := r.pending[messageID]
	if ok {
		delete(r.pending, messageID)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("dropping ack for unknown or already-resolved message", "message_id", messageID)
		return
	}

	select {
	case p.ackCh <- f.GetAck().GetStatus():
	default:
	}
}

// deliverToSink invokes the user sink without holding the reactor lock.
func (r *ReactorCore) deliverToSink(f *frame.Frame) {
	if r.sink == nil {
		return
	}
	r.sink(f)
}

// sendAck enqueues an outbound ack with status.code = 0 for an inbound
// payload.
func (r *ReactorCore) sendAck(messageID string) {
	ack := frame.NewAckFrame(messageID, 0, "")
	if err := r.enqueue(ack); err != nil {
		r.logger.Debug("failed to enqueue ack after termination", "message_id", messageID)
	}
}

// terminate captures the stream's terminal status, fails all outstanding
// pending sends, and transitions to TERMINATED.
func (r *ReactorCore) terminate(err error) {
	r.termOnce.Do(func() {
		r.mu.Lock()
		r.termErr = err
		r.state = stateTerminated
		r.pending = make(map[string]*pendingSend)
		r.mu.Unlock()

		// Every SendMessage/register call currently blocked in its select
		// is also listening on r.termCh directly, so clearing the table
		// and closing termCh together is enough to unblock them all with
		// the terminal status.
		r.finishRegistration(r.terminationErrorLocked(err))
		close(r.termCh)
	})
}

func (r *ReactorCore) clearPending(messageID string) {
	r.mu.Lock()
	delete(r.pending, messageID)
	r.mu.Unlock()
}

// terminationError maps the captured transport status to the sentinel
// callers expect from an in-flight operation racing termination.
func (r *ReactorCore) terminationError() error {
	r.mu.Lock()
	err := r.termErr
	r.mu.Unlock()
	return r.terminationErrorLocked(err)
}

func (r *ReactorCore) terminationErrorLocked(err error) error {
	if err == nil {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
