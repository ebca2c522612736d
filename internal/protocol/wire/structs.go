package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrStructSize    = errors.New("wire: struct size mismatch")
	ErrStructVersion = errors.New("wire: unsupported struct version")
)

// Marshaler 可按线上布局编码的定长结构体（发送侧，值类型即可）
// 所有字段小端、无填充，首字节为版本号
type Marshaler interface {
	WireSize() int
	MarshalWire() []byte
}

// Struct 可编解码的结构体；UnmarshalWire 为指针接收者，传 &v
type Struct interface {
	Marshaler
	UnmarshalWire(b []byte) error
}

var (
	_ Marshaler = TiltState{}
	_ Marshaler = ButtonEvent{}
	_ Struct    = (*TiltState)(nil)
	_ Struct    = (*ButtonEvent)(nil)
)

const (
	TiltStateVersion   = 1
	TiltStateSize      = 13
	ButtonEventVersion = 1
	ButtonEventSize    = 11
)

// TiltState 体感平台姿态，单位：度 / 米
//
//	version u8 | pitch f32 | roll f32 | heave f32
type TiltState struct {
	Pitch float32
	Roll  float32
	Heave float32
}

func (TiltState) WireSize() int { return TiltStateSize }

func (s TiltState) MarshalWire() []byte {
	b := make([]byte, TiltStateSize)
	b[0] = TiltStateVersion
	binary.LittleEndian.PutUint32(b[1:5], math.Float32bits(s.Pitch))
	binary.LittleEndian.PutUint32(b[5:9], math.Float32bits(s.Roll))
	binary.LittleEndian.PutUint32(b[9:13], math.Float32bits(s.Heave))
	return b
}

func (s *TiltState) UnmarshalWire(b []byte) error {
	if len(b) != TiltStateSize {
		return fmt.Errorf("%w: tilt state %d bytes", ErrStructSize, len(b))
	}
	if b[0] != TiltStateVersion {
		return fmt.Errorf("%w: tilt state v%d", ErrStructVersion, b[0])
	}
	s.Pitch = math.Float32frombits(binary.LittleEndian.Uint32(b[1:5]))
	s.Roll = math.Float32frombits(binary.LittleEndian.Uint32(b[5:9]))
	s.Heave = math.Float32frombits(binary.LittleEndian.Uint32(b[9:13]))
	return nil
}

// ButtonEvent 遥控按键事件（RF 接收器上报）
//
//	version u8 | button u8 | pressed u8 | code u32 | timestampMs u32
type ButtonEvent struct {
	Button      uint8
	Pressed     bool
	Code        uint32 // 滚动码
	TimestampMs uint32
}

func (ButtonEvent) WireSize() int { return ButtonEventSize }

func (e ButtonEvent) MarshalWire() []byte {
	b := make([]byte, ButtonEventSize)
	b[0] = ButtonEventVersion
	b[1] = e.Button
	if e.Pressed {
		b[2] = 1
	}
	binary.LittleEndian.PutUint32(b[3:7], e.Code)
	binary.LittleEndian.PutUint32(b[7:11], e.TimestampMs)
	return b
}

func (e *ButtonEvent) UnmarshalWire(b []byte) error {
	if len(b) != ButtonEventSize {
		return fmt.Errorf("%w: button event %d bytes", ErrStructSize, len(b))
	}
	if b[0] != ButtonEventVersion {
		return fmt.Errorf("%w: button event v%d", ErrStructVersion, b[0])
	}
	e.Button = b[1]
	e.Pressed = b[2] != 0
	e.Code = binary.LittleEndian.Uint32(b[3:7])
	e.TimestampMs = binary.LittleEndian.Uint32(b[7:11])
	return nil
}
