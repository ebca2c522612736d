package rf

import (
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

// fakePort 按块返回预置数据，之后模拟读超时
type fakePort struct {
	mu     sync.Mutex
	chunks [][]byte
	closed bool
}

func (p *fakePort) push(b []byte) {
	p.mu.Lock()
	p.chunks = append(p.chunks, b)
	p.mu.Unlock()
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, os.ErrClosed
	}
	if len(p.chunks) == 0 {
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	c := p.chunks[0]
	n := copy(b, c)
	if n < len(c) {
		p.chunks[0] = c[n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	p.mu.Unlock()
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func buttonFrame(t *testing.T, ev wire.ButtonEvent) []byte {
	t.Helper()
	b, err := frame.EncodeStruct(wire.ChannelButtonEvents, ev.MarshalWire())
	require.NoError(t, err)
	return b
}

func TestRollingCodes(t *testing.T) {
	r := NewRollingCodes(4)
	assert.False(t, r.Validate(1, 100), "unlearned button")

	r.SetLearning(true)
	assert.True(t, r.Validate(1, 100))
	r.SetLearning(false)
	assert.Equal(t, 1, r.Learned())

	tests := []struct {
		name string
		code uint32
		want bool
	}{
		{"重放", 100, false},
		{"窗口内", 103, true},
		{"回退", 101, false},
		{"窗口边界", 107, true},
		{"超出窗口", 112, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Validate(1, tt.code), tt.name)
	}

	r.SetLearning(true)
	r.Validate(2, 0xFFFFFFFE)
	r.SetLearning(false)
	assert.True(t, r.Validate(2, 1), "32-bit wraparound")
}

func TestGeneric_ReadsButtonEvents(t *testing.T) {
	port := &fakePort{}
	recv, err := New(Config{Backend: BackendGeneric, Device: "/dev/null"},
		WithPortOpener(func(Config) (Port, error) { return port, nil }))
	require.NoError(t, err)
	require.NoError(t, recv.Initialize())
	defer recv.Shutdown()
	assert.True(t, recv.IsConnected())

	recv.SetLearning(true)
	learn := buttonFrame(t, wire.ButtonEvent{Button: 1, Pressed: true, Code: 10})
	port.push(append([]byte{0x00, 0x13}, learn[:5]...))
	port.push(learn[5:])
	require.Eventually(t, func() bool { return len(recv.ButtonEvents()) == 1 }, time.Second, time.Millisecond)

	recv.SetLearning(false)
	port.push(buttonFrame(t, wire.ButtonEvent{Button: 1, Code: 10}))
	port.push(buttonFrame(t, wire.ButtonEvent{Button: 1, Pressed: true, Code: 12}))
	other, err := frame.EncodeFloat(2, 1)
	require.NoError(t, err)
	port.push(other)

	var got []wire.ButtonEvent
	require.Eventually(t, func() bool {
		got = append(got, recv.ButtonEvents()...)
		return len(got) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, uint32(12), got[0].Code)
	assert.True(t, got[0].Pressed)
	assert.Equal(t, uint64(1), recv.(*Generic).Rejected(), "replayed code rejected")

	require.NoError(t, recv.Shutdown())
	assert.NoError(t, recv.Shutdown())
	assert.False(t, recv.IsConnected())
}

func TestGeneric_OpenFailure(t *testing.T) {
	boom := errors.New("no such device")
	recv, err := New(Config{Device: "/dev/ttyUSB9"},
		WithPortOpener(func(Config) (Port, error) { return nil, boom }))
	require.NoError(t, err)
	assert.ErrorIs(t, recv.Initialize(), boom)
	assert.False(t, recv.IsConnected())
}

func TestGeneric_ReadErrorDisconnects(t *testing.T) {
	port := &fakePort{}
	recv, err := New(Config{}, WithPortOpener(func(Config) (Port, error) { return port, nil }))
	require.NoError(t, err)
	require.NoError(t, recv.Initialize())
	_ = port.Close()
	require.Eventually(t, func() bool { return !recv.IsConnected() }, time.Second, time.Millisecond)
	assert.NoError(t, recv.Shutdown())
}

func TestNew_Backends(t *testing.T) {
	for _, b := range []Backend{BackendRTLSDR, BackendCC1101, BackendRFM69, BackendRFM95} {
		recv, err := New(Config{Backend: b})
		require.NoError(t, err)
		assert.ErrorIs(t, recv.Initialize(), ErrNotImplemented, string(b))
		assert.False(t, recv.IsConnected())
		assert.Nil(t, recv.ButtonEvents())
		assert.False(t, recv.ValidateRollingCode(1, 1))
		recv.SetLearning(true)
		assert.NoError(t, recv.Shutdown())
	}

	_, err := New(Config{Backend: "sdr-9000"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = OpenSerial(Config{})
	assert.Error(t, err)
}
