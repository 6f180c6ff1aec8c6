// ABOUTME: Tests for ConnectionId construction and header/string rendering
// ABOUTME: Covers New, Headers, and String

package connectionid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New("projects/p/instances/i", "chan-1")
	assert.Equal(t, "projects/p/instances/i", id.ResourceID)
	assert.Equal(t, "chan-1", id.ChannelID)
}

func TestHeaders(t *testing.T) {
	id := New("projects/p/instances/i", "chan-1")
	headers := id.Headers()

	assert.Equal(t, "projects/p/instances/i", headers[ResourceIDKey])
	assert.Equal(t, "chan-1", headers[ChannelIDKey])
	assert.Len(t, headers, 2)
}

func TestString(t *testing.T) {
	id := New("res", "chan")
	assert.Equal(t, "res/chan", id.String())
}
