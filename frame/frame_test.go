// ABOUTME: Tests for frame construction, oneof accessors, and nil-safety
// ABOUTME: Covers body/ack/registration frame builders and status code semantics

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBodyFrame(t *testing.T) {
	f := NewBodyFrame("msg-1", &Body{Data: []byte("hi"), Metadata: map[string]string{"k": "v"}})

	assert.Equal(t, "msg-1", f.GetMessageID())
	assert.False(t, f.IsAck())
	require.NotNil(t, f.GetBody())
	assert.Equal(t, []byte("hi"), f.GetBody().GetData())
	assert.Equal(t, "v", f.GetBody().GetMetadata()["k"])
	assert.Nil(t, f.GetAck())
}

func TestNewAckFrame(t *testing.T) {
	f := NewAckFrame("msg-2", 7, "nope")

	assert.Equal(t, "msg-2", f.GetMessageID())
	assert.True(t, f.IsAck())
	require.NotNil(t, f.GetAck())
	assert.Equal(t, int32(7), f.GetAck().GetStatus().GetCode())
	assert.Equal(t, "nope", f.GetAck().GetStatus().GetMessage())
	assert.Nil(t, f.GetBody())
}

func TestNewRegistrationFrame(t *testing.T) {
	f := NewRegistrationFrame("msg-3", &Body{Data: []byte("register me")})

	assert.True(t, f.IsRegistration())
	assert.Equal(t, []byte("register me"), f.GetBody().GetData())

	plain := NewBodyFrame("msg-4", &Body{Data: []byte("ordinary")})
	assert.False(t, plain.IsRegistration())
}

func TestNewRegistrationFrameNilBody(t *testing.T) {
	f := NewRegistrationFrame("msg-5", nil)

	require.NotNil(t, f.GetBody())
	assert.True(t, f.IsRegistration())
}

func TestFrameNilSafety(t *testing.T) {
	var f *Frame
	assert.Equal(t, "", f.GetMessageID())
	assert.Nil(t, f.GetBody())
	assert.Nil(t, f.GetAck())

	var s *Status
	assert.Equal(t, int32(0), s.GetCode())
	assert.Equal(t, "", s.GetMessage())
	assert.Equal(t, "<nil>", s.String())

	var b *Body
	assert.Nil(t, b.GetData())
	assert.Nil(t, b.GetMetadata())

	var a *Ack
	assert.Nil(t, a.GetStatus())
}

func TestAckStatusZeroCodeMeansSuccess(t *testing.T) {
	f := NewAckFrame("msg-6", 0, "")
	assert.Equal(t, int32(0), f.GetAck().GetStatus().GetCode())
}
