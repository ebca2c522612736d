package rf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

type fakeReceiver struct {
	stub
	pending []wire.ButtonEvent
}

func (f *fakeReceiver) IsConnected() bool { return true }

func (f *fakeReceiver) ButtonEvents() []wire.ButtonEvent {
	out := f.pending
	f.pending = nil
	return out
}

type fakeSink struct {
	name string
	err  error
	got  []wire.ButtonEvent
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) SendStruct(channel uint8, v wire.Marshaler) error {
	if channel != wire.ChannelButtonEvents {
		return errors.New("wrong channel")
	}
	if s.err != nil {
		return s.err
	}
	var ev wire.ButtonEvent
	if err := ev.UnmarshalWire(v.MarshalWire()); err != nil {
		return err
	}
	s.got = append(s.got, ev)
	return nil
}

func TestBridge_ForwardsToAllSinks(t *testing.T) {
	recv := &fakeReceiver{}
	ok := &fakeSink{name: "vest"}
	bad := &fakeSink{name: "glove", err: errors.New("not connected")}
	b := NewBridge(recv, []Sink{ok, bad}, nil)

	assert.Equal(t, 0, b.Poll(), "no events")
	st := b.Status()
	assert.Nil(t, st.Last)
	assert.Nil(t, st.LastAt)

	recv.pending = []wire.ButtonEvent{
		{Button: 1, Pressed: true, Code: 5},
		{Button: 2, Pressed: false, Code: 9},
	}
	assert.Equal(t, 2, b.Poll())
	require.Len(t, ok.got, 2)
	assert.Equal(t, uint32(9), ok.got[1].Code)

	st = b.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, []string{"vest", "glove"}, st.Sinks)
	assert.Equal(t, uint64(2), st.Forwarded)
	assert.Equal(t, uint64(2), st.SendErrors)
	require.NotNil(t, st.Last)
	assert.Equal(t, uint8(2), st.Last.Button)
	assert.NotNil(t, st.LastAt)
	assert.NoError(t, b.Shutdown())
}
