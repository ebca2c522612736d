package app

import (
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
	"github.com/taoyao-code/lbe-link/internal/rf"
)

// linePort 一次性吐出预置字节，之后模拟读超时
type linePort struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func (p *linePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, os.ErrClosed
	}
	if len(p.data) == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	n := copy(b, p.data)
	p.data = p.data[n:]
	return n, nil
}

func (p *linePort) Write(b []byte) (int, error) { return len(b), nil }

func (p *linePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func TestNewRFBridge(t *testing.T) {
	dc := cfgpkg.DeviceConfig{Name: "vest", RemoteAddress: "127.0.0.1", RemotePort: 18889}
	dc.ApplyDefaults()
	_, linkm := NewMetrics()
	mgr, err := NewDeviceManager([]cfgpkg.DeviceConfig{dc}, wire.DefaultContract(), linkm, zap.NewNop())
	require.NoError(t, err)

	t.Run("未启用", func(t *testing.T) {
		b, err := NewRFBridge(cfgpkg.RFConfig{}, mgr, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("未知转发目标", func(t *testing.T) {
		_, err := NewRFBridge(cfgpkg.RFConfig{Enabled: true, ForwardTo: []string{"glove"}}, mgr, zap.NewNop())
		assert.ErrorContains(t, err, "glove")
	})

	t.Run("事件转发到会话", func(t *testing.T) {
		raw, err := frame.EncodeStruct(wire.ChannelButtonEvents,
			wire.ButtonEvent{Button: 3, Pressed: true, Code: 77}.MarshalWire())
		require.NoError(t, err)
		port := &linePort{data: raw}

		b, err := NewRFBridge(cfgpkg.RFConfig{Enabled: true, Backend: "generic", Learning: true, ForwardTo: []string{"vest"}},
			mgr, zap.NewNop(), rf.WithPortOpener(func(rf.Config) (rf.Port, error) { return port, nil }))
		require.NoError(t, err)
		require.NotNil(t, b)
		defer b.Shutdown()

		require.Eventually(t, func() bool { return b.Poll() == 1 }, time.Second, time.Millisecond)
		st := b.Status()
		assert.True(t, st.Connected)
		assert.Equal(t, []string{"vest"}, st.Sinks)
		assert.Equal(t, uint64(1), st.Forwarded)
		// 会话尚未打开链路，发送失败只计数
		assert.Equal(t, uint64(1), st.SendErrors)
		require.NotNil(t, st.Last)
		assert.Equal(t, uint32(77), st.Last.Code)
	})
}
