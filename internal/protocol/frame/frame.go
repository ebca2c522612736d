package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// 帧格式：[0xAA][Type][Channel][Payload...][CRC]
const (
	StartMarker = 0xAA

	HeaderSize   = 3              // marker + type + channel
	Overhead     = HeaderSize + 1 // 头 + 校验字节
	MinFrameSize = Overhead + 1

	// MaxValueSize 字符串/字节/结构体值上限（长度前缀为1字节）
	MaxValueSize = 255
	// MaxBodySize 原始载荷上限：长度前缀 + 值 + 安全信封（IV 4 + 标签 8）
	MaxBodySize  = 1 + MaxValueSize + 12
	MaxFrameSize = Overhead + MaxBodySize
)

// Type 值类型
type Type byte

const (
	TypeBool   Type = 0
	TypeInt32  Type = 1
	TypeFloat  Type = 2
	TypeString Type = 3
	TypeBytes  Type = 4
	TypeStruct Type = 5
)

// Valid 是否为已定义类型
func (t Type) Valid() bool { return t <= TypeStruct }

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeStruct:
		return "struct"
	default:
		return fmt.Sprintf("type(%d)", byte(t))
	}
}

// Frame 解码后的帧
// Payload 在 Decode 后为值本身（已去掉长度前缀），在 DecodeRaw 后为原始载荷
type Frame struct {
	Type    Type
	Channel uint8
	Payload []byte
}

// WrapBody 将值按类型编码为帧载荷
func WrapBody(t Type, value []byte) ([]byte, error) {
	switch t {
	case TypeBool:
		if len(value) != 1 || value[0] > 1 {
			return nil, fmt.Errorf("%w: bool wants one 0/1 byte", ErrBadLength)
		}
		return []byte{value[0]}, nil
	case TypeInt32, TypeFloat:
		if len(value) != 4 {
			return nil, fmt.Errorf("%w: %s wants 4 bytes, got %d", ErrBadLength, t, len(value))
		}
		return append([]byte(nil), value...), nil
	case TypeString, TypeBytes:
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(value))
		}
		body := make([]byte, 1+len(value))
		body[0] = byte(len(value))
		copy(body[1:], value)
		return body, nil
	case TypeStruct:
		if len(value) == 0 {
			return nil, fmt.Errorf("%w: empty struct", ErrBadLength)
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(value))
		}
		return append([]byte(nil), value...), nil
	default:
		return nil, ErrUnknownType
	}
}

// UnwrapBody 按类型校验并取出值
func UnwrapBody(t Type, body []byte) ([]byte, error) {
	switch t {
	case TypeBool:
		if len(body) != 1 {
			return nil, fmt.Errorf("%w: bool body %d bytes", ErrBadLength, len(body))
		}
	case TypeInt32, TypeFloat:
		if len(body) != 4 {
			return nil, fmt.Errorf("%w: %s body %d bytes", ErrBadLength, t, len(body))
		}
	case TypeString, TypeBytes:
		if len(body) < 1 || int(body[0]) != len(body)-1 {
			return nil, fmt.Errorf("%w: length prefix mismatch", ErrBadLength)
		}
		return body[1:], nil
	case TypeStruct:
		if len(body) < 1 {
			return nil, fmt.Errorf("%w: empty struct", ErrBadLength)
		}
	default:
		return nil, ErrUnknownType
	}
	return body, nil
}

// EncodeRaw 以不透明载荷构建帧（安全信封使用）
func EncodeRaw(t Type, channel uint8, body []byte) ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownType
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrBadLength)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: body %d bytes", ErrPayloadTooLarge, len(body))
	}
	buf := make([]byte, 0, Overhead+len(body))
	buf = append(buf, StartMarker, byte(t), channel)
	buf = append(buf, body...)
	return append(buf, Checksum(buf)), nil
}

// Encode 将类型化值编码为完整帧
func Encode(t Type, channel uint8, value []byte) ([]byte, error) {
	body, err := WrapBody(t, value)
	if err != nil {
		return nil, err
	}
	return EncodeRaw(t, channel, body)
}

// DecodeRaw 只做结构校验（长度、起始字节、校验和、类型），返回原始载荷
// 类型未定义时同时返回帧头与 ErrUnknownType，便于调用方记录通道
func DecodeRaw(data []byte) (*Frame, error) {
	if len(data) < MinFrameSize {
		return nil, ErrTooShort
	}
	if data[0] != StartMarker {
		return nil, ErrBadMarker
	}
	if err := VerifyChecksum(data); err != nil {
		return nil, err
	}
	f := &Frame{
		Type:    Type(data[1]),
		Channel: data[2],
		Payload: append([]byte(nil), data[HeaderSize:len(data)-1]...),
	}
	if !f.Type.Valid() {
		return f, ErrUnknownType
	}
	return f, nil
}

// Decode 解析完整帧并按类型取出值
func Decode(data []byte) (*Frame, error) {
	f, err := DecodeRaw(data)
	if err != nil {
		return f, err
	}
	v, err := UnwrapBody(f.Type, f.Payload)
	if err != nil {
		return nil, err
	}
	f.Payload = v
	return f, nil
}

// BoolValue / Int32Value / FloatValue 构造定长值
func BoolValue(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func Int32Value(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func FloatValue(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func EncodeBool(channel uint8, v bool) ([]byte, error) {
	return Encode(TypeBool, channel, BoolValue(v))
}

func EncodeInt32(channel uint8, v int32) ([]byte, error) {
	return Encode(TypeInt32, channel, Int32Value(v))
}

func EncodeFloat(channel uint8, v float32) ([]byte, error) {
	return Encode(TypeFloat, channel, FloatValue(v))
}

func EncodeString(channel uint8, s string) ([]byte, error) {
	return Encode(TypeString, channel, []byte(s))
}

func EncodeBytes(channel uint8, b []byte) ([]byte, error) {
	return Encode(TypeBytes, channel, b)
}

func EncodeStruct(channel uint8, b []byte) ([]byte, error) {
	return Encode(TypeStruct, channel, b)
}

// Bool 读取布尔值（非零为 true，与固件一致）
func (f *Frame) Bool() (bool, error) {
	if f.Type != TypeBool || len(f.Payload) != 1 {
		return false, ErrTypeMismatch
	}
	return f.Payload[0] != 0, nil
}

func (f *Frame) Int32() (int32, error) {
	if f.Type != TypeInt32 || len(f.Payload) != 4 {
		return 0, ErrTypeMismatch
	}
	return int32(binary.LittleEndian.Uint32(f.Payload)), nil
}

func (f *Frame) Float() (float32, error) {
	if f.Type != TypeFloat || len(f.Payload) != 4 {
		return 0, ErrTypeMismatch
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(f.Payload)), nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame{type=%s ch=%d len=%d}", f.Type, f.Channel, len(f.Payload))
}

// Text 读取字符串值
func (f *Frame) Text() (string, error) {
	if f.Type != TypeString {
		return "", ErrTypeMismatch
	}
	return string(f.Payload), nil
}
