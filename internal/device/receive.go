package device

import (
	"errors"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
	"github.com/taoyao-code/lbe-link/internal/registry"
	"github.com/taoyao-code/lbe-link/internal/transport/udp"
)

// 丢包原因（frame.Reason 之外）
const (
	reasonRejected = "rejected"
	reasonContract = "contract"
	reasonSource   = "source"
)

// maxPollBatch 单次 Poll 最多处理的数据报数，防止持续洪泛时 tick 无法返回
const maxPollBatch = 4096

// Poll 非阻塞排空待读数据报，返回写入缓存的帧数
// 单个坏包只丢弃该包，不影响会话
func (s *Session) Poll() int {
	s.mu.Lock()
	tr := s.tr
	s.mu.Unlock()
	if tr == nil {
		return 0
	}

	accepted := 0
	for i := 0; i < maxPollBatch; i++ {
		dg, ok, err := tr.TryReceive()
		if err != nil {
			if !errors.Is(err, udp.ErrClosed) {
				s.log.Warn("receive failed", zap.Error(err))
			}
			return accepted
		}
		if !ok {
			return accepted
		}
		if s.handle(dg) {
			accepted++
		}
	}
	return accepted
}

func (s *Session) handle(dg udp.Datagram) bool {
	s.mu.Lock()
	env, remote, filter := s.env, s.remote, s.filterSource
	s.stats.BytesReceived += uint64(len(dg.Data))
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.BytesReceived.WithLabelValues(s.cfg.Name).Add(float64(len(dg.Data)))
	}

	if filter && dg.From.Addr() != remote {
		s.drop(reasonSource, zap.String("from", dg.From.String()))
		return false
	}

	f, err := frame.DecodeRaw(dg.Data)
	if err != nil {
		fields := []zap.Field{zap.Int("len", len(dg.Data)), zap.Error(err)}
		if f != nil {
			fields = append(fields, zap.Uint8("channel", f.Channel), zap.Uint8("type", uint8(f.Type)))
		}
		s.drop(frame.Reason(err), fields...)
		return false
	}

	body, err := env.Unwrap(frameHeader(f.Type, f.Channel), f.Payload)
	if err != nil {
		s.log.Warn("inbound frame rejected", zap.Uint8("channel", f.Channel), zap.String("from", dg.From.String()))
		s.drop(reasonRejected)
		return false
	}

	value, err := frame.UnwrapBody(f.Type, body)
	if err != nil {
		s.drop(frame.Reason(err), zap.Uint8("channel", f.Channel), zap.Error(err))
		return false
	}
	if err := s.contract.CheckValue(f.Channel, f.Type, value); err != nil {
		s.drop(reasonContract, zap.Uint8("channel", f.Channel), zap.Error(err))
		return false
	}
	kind, _ := registry.KindOf(f.Type)

	s.mu.Lock()
	if s.tr == nil {
		// 处理期间被断开
		s.mu.Unlock()
		return false
	}
	s.lastRx = s.now()
	s.stats.FramesReceived++
	s.stats.LastRx = s.lastRx
	switch s.state {
	case StateConnecting:
		s.setStateLocked(StateConnected)
		s.log.Info("device connected", zap.String("via", "receive"))
	case StateTimedOut:
		s.setStateLocked(StateConnected)
		s.log.Info("device reconnected")
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.FramesReceived.WithLabelValues(s.cfg.Name, f.Type.String()).Inc()
	}
	s.reg.Update(f.Channel, kind, value)
	return true
}

func (s *Session) drop(reason string, fields ...zap.Field) {
	s.mu.Lock()
	s.stats.FramesDropped++
	s.stats.Drops[reason]++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.FramesDropped.WithLabelValues(s.cfg.Name, reason).Inc()
	}
	s.log.Debug("inbound frame dropped", append(fields, zap.String("reason", reason))...)
}

// GetDigitalInput 最近一次布尔输入，未收到时为 false
func (s *Session) GetDigitalInput(channel uint8) bool {
	v, _ := s.GetReceivedBool(channel)
	return v
}

// GetAnalogInput 最近一次浮点输入，未收到时为 0
func (s *Session) GetAnalogInput(channel uint8) float32 {
	v, _ := s.GetReceivedFloat(channel)
	return v
}

func (s *Session) GetReceivedBool(channel uint8) (bool, bool) {
	v, ok := s.reg.Latest(channel, registry.KindBool)
	return v.Bool(), ok
}

func (s *Session) GetReceivedInt32(channel uint8) (int32, bool) {
	v, ok := s.reg.Latest(channel, registry.KindInt32)
	return v.Int32(), ok
}

func (s *Session) GetReceivedFloat(channel uint8) (float32, bool) {
	v, ok := s.reg.Latest(channel, registry.KindFloat)
	return v.Float(), ok
}

func (s *Session) GetReceivedString(channel uint8) (string, bool) {
	v, ok := s.reg.Latest(channel, registry.KindString)
	return v.Text(), ok
}

func (s *Session) GetReceivedBytes(channel uint8) ([]byte, bool) {
	v, ok := s.reg.Latest(channel, registry.KindBytes)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v.Raw...), true
}

// GetReceivedStruct 将最近一次结构体值解码到 dst
func (s *Session) GetReceivedStruct(channel uint8, dst wire.Struct) (bool, error) {
	v, ok := s.reg.Latest(channel, registry.KindStruct)
	if !ok {
		return false, nil
	}
	if err := dst.UnmarshalWire(v.Raw); err != nil {
		return true, err
	}
	return true, nil
}

// Subscribe 订阅通道更新，回调在 tick 协程上同步执行
func (s *Session) Subscribe(channel uint8, kind registry.Kind, fn registry.Handler) (cancel func()) {
	return s.reg.Subscribe(channel, kind, fn)
}

func (s *Session) SubscribeAll(fn registry.Handler) (cancel func()) {
	return s.reg.SubscribeAll(fn)
}
