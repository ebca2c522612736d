package device

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"github.com/taoyao-code/lbe-link/internal/protocol/secure"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

func (s *Session) SendBool(channel uint8, v bool) error {
	return s.send(frame.TypeBool, channel, frame.BoolValue(v))
}

func (s *Session) SendInt32(channel uint8, v int32) error {
	return s.send(frame.TypeInt32, channel, frame.Int32Value(v))
}

func (s *Session) SendFloat(channel uint8, v float32) error {
	return s.send(frame.TypeFloat, channel, frame.FloatValue(v))
}

func (s *Session) SendString(channel uint8, v string) error {
	return s.send(frame.TypeString, channel, []byte(v))
}

func (s *Session) SendBytes(channel uint8, v []byte) error {
	return s.send(frame.TypeBytes, channel, v)
}

// SendStruct 按结构体的显式线上布局发送
func (s *Session) SendStruct(channel uint8, v wire.Marshaler) error {
	return s.send(frame.TypeStruct, channel, v.MarshalWire())
}

// SendStructBytes 发送已按约定布局编码好的结构体字节
func (s *Session) SendStructBytes(channel uint8, b []byte) error {
	return s.send(frame.TypeStruct, channel, b)
}

// send 长度上限 → 通道约定 → 编码 → 安全信封 → 限流 → 发送
// 发送失败只计数和记录，不改变连接状态
func (s *Session) send(t frame.Type, channel uint8, value []byte) error {
	s.mu.Lock()
	tr, env, state := s.tr, s.env, s.state
	s.mu.Unlock()

	switch {
	case state == StateUninitialized:
		return ErrNotInitialized
	case state == StateDisconnected || tr == nil:
		return ErrDisconnected
	}

	pkt, err := s.encode(t, channel, value, env)
	if err != nil {
		s.sendFailed(t, channel, err)
		return err
	}
	if !s.limiter.AllowAt(s.now()) {
		s.sendFailed(t, channel, ErrRateLimited)
		return ErrRateLimited
	}
	if err := tr.Send(pkt); err != nil {
		s.sendFailed(t, channel, err)
		return err
	}

	s.mu.Lock()
	s.stats.FramesSent++
	s.stats.BytesSent += uint64(len(pkt))
	if s.state == StateConnecting {
		s.setStateLocked(StateConnected)
		s.log.Info("device connected", zap.String("via", "send"))
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.FramesSent.WithLabelValues(s.cfg.Name, t.String()).Inc()
		s.metrics.BytesSent.WithLabelValues(s.cfg.Name).Add(float64(len(pkt)))
	}
	return nil
}

func (s *Session) encode(t frame.Type, channel uint8, value []byte, env secure.Envelope) ([]byte, error) {
	if t == frame.TypeString || t == frame.TypeBytes || t == frame.TypeStruct {
		if len(value) > s.cfg.MaxPayloadBytes {
			return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", frame.ErrPayloadTooLarge, len(value), s.cfg.MaxPayloadBytes)
		}
	}
	if err := s.contract.CheckValue(channel, t, value); err != nil {
		return nil, err
	}
	body, err := frame.WrapBody(t, value)
	if err != nil {
		return nil, err
	}
	wrapped, err := env.Wrap(frameHeader(t, channel), body)
	if err != nil {
		return nil, err
	}
	return frame.EncodeRaw(t, channel, wrapped)
}

// frameHeader 信封认证的帧头字节：类型 ‖ 通道
func frameHeader(t frame.Type, channel uint8) []byte {
	return []byte{byte(t), channel}
}

func (s *Session) sendFailed(t frame.Type, channel uint8, err error) {
	s.mu.Lock()
	s.stats.SendErrors++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SendErrors.WithLabelValues(s.cfg.Name).Inc()
	}
	s.log.Debug("send failed",
		zap.String("type", t.String()),
		zap.Uint8("channel", channel),
		zap.Error(err))
}
