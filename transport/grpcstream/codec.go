// ABOUTME: gRPC wire codec for frame.Frame, backed by encoding/gob
// ABOUTME: Stands in for a protoc-generated codec; no .proto toolchain here

package grpcstream

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
)

// codecName is the gRPC content-subtype this package registers. There is no
// protoc-generated message type for frame.Frame (see DESIGN.md), so frames
// travel as gob-encoded wire envelopes over a real grpc.ClientConn/Server
// instead of protobuf.
const codecName = "acsframe"

func init() {
	encoding.RegisterCodec(frameCodec{})
}

// wireFrame is the gob-serializable shape of a frame.Frame. frame.Type is an
// interface, so the two variants are flattened into optional fields rather
// than gob-registered concrete types.
type wireFrame struct {
	MessageID string
	HasBody   bool
	Body      *frame.Body
	HasAck    bool
	Ack       *frame.Ack
}

func toWire(f *frame.Frame) *wireFrame {
	w := &wireFrame{MessageID: f.GetMessageID()}
	switch t := f.Type.(type) {
	case *frame.BodyType:
		w.HasBody = true
		w.Body = t.Body
	case *frame.AckType:
		w.HasAck = true
		w.Ack = t.Ack
	}
	return w
}

func fromWire(w *wireFrame) *frame.Frame {
	f := &frame.Frame{MessageID: w.MessageID}
	switch {
	case w.HasAck:
		f.Type = &frame.AckType{Ack: w.Ack}
	case w.HasBody:
		f.Type = &frame.BodyType{Body: w.Body}
	}
	return f
}

// frameCodec implements google.golang.org/grpc/encoding.Codec for
// *frame.Frame values using encoding/gob.
type frameCodec struct{}

func (frameCodec) Name() string { return codecName }

func (frameCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("acsframe codec: unsupported type %T", v)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toWire(f)); err != nil {
		return nil, fmt.Errorf("acsframe codec: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*frame.Frame)
	if !ok {
		return fmt.Errorf("acsframe codec: unsupported type %T", v)
	}
	var w wireFrame
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("acsframe codec: decode: %w", err)
	}
	*f = *fromWire(&w)
	return nil
}
