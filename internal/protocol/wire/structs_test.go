package wire

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiltState_Layout(t *testing.T) {
	s := TiltState{Pitch: 1.0, Roll: -1.0, Heave: 0}
	b := s.MarshalWire()
	require.Len(t, b, s.WireSize())
	assert.Equal(t, "01"+"0000803f"+"000080bf"+"00000000", hex.EncodeToString(b))

	var got TiltState
	require.NoError(t, got.UnmarshalWire(b))
	assert.Equal(t, s, got)
}

func TestButtonEvent_Layout(t *testing.T) {
	e := ButtonEvent{Button: 3, Pressed: true, Code: 0x01020304, TimestampMs: 1000}
	b := e.MarshalWire()
	require.Len(t, b, ButtonEventSize)
	assert.Equal(t, "010301"+"04030201"+"e8030000", hex.EncodeToString(b))

	var got ButtonEvent
	require.NoError(t, got.UnmarshalWire(b))
	assert.Equal(t, e, got)
}

func TestStruct_Errors(t *testing.T) {
	var s TiltState
	assert.ErrorIs(t, s.UnmarshalWire(make([]byte, 12)), ErrStructSize)
	bad := TiltState{}.MarshalWire()
	bad[0] = 2
	assert.ErrorIs(t, s.UnmarshalWire(bad), ErrStructVersion)

	var e ButtonEvent
	assert.ErrorIs(t, e.UnmarshalWire(nil), ErrStructSize)
	badEv := ButtonEvent{}.MarshalWire()
	badEv[0] = 0
	assert.ErrorIs(t, e.UnmarshalWire(badEv), ErrStructVersion)
}
