// ABOUTME: Wire-level frame exchanged over an agent communication stream
// ABOUTME: Tagged union of a payload body and an acknowledgement, keyed by message ID

// Package frame defines the wire-level message exchanged in both directions
// over an agent communication stream: a tagged union of a payload body and
// an acknowledgement, keyed by an opaque message ID.
package frame

import "fmt"

// Status mirrors a minimal gRPC-style status: a numeric code plus a
// human-readable message. Code 0 means success.
type Status struct {
	Code    int32
	Message string
}

// GetCode returns the status code, or 0 if s is nil. Code 0 means success.
func (s *Status) GetCode() int32 {
	if s == nil {
		return 0
	}
	return s.Code
}

// GetMessage returns the status message, or "" if s is nil.
func (s *Status) GetMessage() string {
	if s == nil {
		return ""
	}
	return s.Message
}

func (s *Status) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("code=%d message=%q", s.Code, s.Message)
}

// Body carries an opaque payload plus typed metadata describing it.
type Body struct {
	Data     []byte
	Metadata map[string]string
}

// GetData returns the payload bytes, or nil if b is nil.
func (b *Body) GetData() []byte {
	if b == nil {
		return nil
	}
	return b.Data
}

// GetMetadata returns the payload metadata, or nil if b is nil.
func (b *Body) GetMetadata() map[string]string {
	if b == nil {
		return nil
	}
	return b.Metadata
}

// Ack acknowledges receipt of the payload carrying the same message ID in
// the opposite direction.
type Ack struct {
	Status *Status
}

// GetStatus returns the ack's status, or nil if a is nil.
func (a *Ack) GetStatus() *Status {
	if a == nil {
		return nil
	}
	return a.Status
}

// Type is the oneof variant carried by a Frame: either *Body or *Ack.
type Type interface {
	isFrameType()
}

// BodyType wraps a payload variant.
type BodyType struct{ Body *Body }

// AckType wraps an acknowledgement variant.
type AckType struct{ Ack *Ack }

func (*BodyType) isFrameType() {}
func (*AckType) isFrameType()  {}

// Frame is one unit of the bidirectional stream.
type Frame struct {
	MessageID string
	Type      Type
}

// GetMessageID returns the frame's message ID, or "" if f is nil.
func (f *Frame) GetMessageID() string {
	if f == nil {
		return ""
	}
	return f.MessageID
}

// GetBody returns the frame's body if it carries one, else nil.
func (f *Frame) GetBody() *Body {
	if f == nil {
		return nil
	}
	if b, ok := f.Type.(*BodyType); ok {
		return b.Body
	}
	return nil
}

// GetAck returns the frame's ack if it carries one, else nil.
func (f *Frame) GetAck() *Ack {
	if f == nil {
		return nil
	}
	if a, ok := f.Type.(*AckType); ok {
		return a.Ack
	}
	return nil
}

// IsAck reports whether the frame is an acknowledgement.
func (f *Frame) IsAck() bool {
	_, ok := f.Type.(*AckType)
	return ok
}

// NewBodyFrame builds a payload frame.
func NewBodyFrame(messageID string, body *Body) *Frame {
	return &Frame{MessageID: messageID, Type: &BodyType{Body: body}}
}

// NewAckFrame builds an acknowledgement frame for messageID with the given
// status code (0 for success).
func NewAckFrame(messageID string, code int32, message string) *Frame {
	return &Frame{
		MessageID: messageID,
		Type:      &AckType{Ack: &Ack{Status: &Status{Code: code, Message: message}}},
	}
}

// registrationMetadataKey marks a body frame as the distinguished
// registration payload sent as the first outbound frame after stream open.
const registrationMetadataKey = "acs-frame-type"

// registrationMetadataValue is the value registrationMetadataKey carries on
// the registration request.
const registrationMetadataValue = "register"

// NewRegistrationFrame builds the distinguished registration payload sent as
// the first outbound frame after stream open.
func NewRegistrationFrame(messageID string, body *Body) *Frame {
	if body == nil {
		body = &Body{}
	}
	if body.Metadata == nil {
		body.Metadata = make(map[string]string, 1)
	}
	body.Metadata[registrationMetadataKey] = registrationMetadataValue
	return NewBodyFrame(messageID, body)
}

// IsRegistration reports whether f is a registration payload.
func (f *Frame) IsRegistration() bool {
	b := f.GetBody()
	if b == nil {
		return false
	}
	return b.GetMetadata()[registrationMetadataKey] == registrationMetadataValue
}
