// Package firmware 微控制器端协议镜像：固定缓冲、无堆分配，线上格式与主机端一致
package firmware

import (
	"encoding/binary"
	"math"
)

const (
	StartMarker  = 0xAA
	MaxValueLen  = 255
	MaxPacketLen = 3 + 1 + MaxValueLen + 1
)

// 值类型
const (
	TypeBool   uint8 = 0
	TypeInt32  uint8 = 1
	TypeFloat  uint8 = 2
	TypeString uint8 = 3
	TypeBytes  uint8 = 4
	TypeStruct uint8 = 5
)

// Crc8 对所有字节逐个异或
func Crc8(data []byte) uint8 {
	var crc uint8
	for i := 0; i < len(data); i++ {
		crc ^= data[i]
	}
	return crc
}

// Builder 在内部固定缓冲上构建帧，返回的切片在下一次构建前有效
type Builder struct {
	buf [MaxPacketLen]byte
}

func (b *Builder) finish(n int) []byte {
	b.buf[n] = Crc8(b.buf[:n])
	return b.buf[:n+1]
}

func (b *Builder) header(t, channel uint8) {
	b.buf[0] = StartMarker
	b.buf[1] = t
	b.buf[2] = channel
}

func (b *Builder) Bool(channel uint8, v bool) []byte {
	b.header(TypeBool, channel)
	b.buf[3] = 0
	if v {
		b.buf[3] = 1
	}
	return b.finish(4)
}

func (b *Builder) Int32(channel uint8, v int32) []byte {
	b.header(TypeInt32, channel)
	binary.LittleEndian.PutUint32(b.buf[3:7], uint32(v))
	return b.finish(7)
}

func (b *Builder) Float(channel uint8, v float32) []byte {
	b.header(TypeFloat, channel)
	binary.LittleEndian.PutUint32(b.buf[3:7], math.Float32bits(v))
	return b.finish(7)
}

// String 超过 255 字节返回 nil
func (b *Builder) String(channel uint8, s string) []byte {
	if len(s) > MaxValueLen {
		return nil
	}
	b.header(TypeString, channel)
	b.buf[3] = uint8(len(s))
	n := copy(b.buf[4:], s)
	return b.finish(4 + n)
}

func (b *Builder) Bytes(channel uint8, v []byte) []byte {
	if len(v) > MaxValueLen {
		return nil
	}
	b.header(TypeBytes, channel)
	b.buf[3] = uint8(len(v))
	n := copy(b.buf[4:], v)
	return b.finish(4 + n)
}

// Struct 结构体按原始字节发送，无长度前缀
func (b *Builder) Struct(channel uint8, v []byte) []byte {
	if len(v) == 0 || len(v) > MaxValueLen {
		return nil
	}
	b.header(TypeStruct, channel)
	n := copy(b.buf[3:], v)
	return b.finish(3 + n)
}

// Result 解析结果
type Result uint8

const (
	OK Result = iota
	TooShort
	BadMarker
	BadChecksum
	UnknownType
	BadLength
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case TooShort:
		return "too_short"
	case BadMarker:
		return "bad_marker"
	case BadChecksum:
		return "bad_checksum"
	case UnknownType:
		return "unknown_type"
	case BadLength:
		return "bad_length"
	default:
		return "unknown"
	}
}

// Packet 解析结果，Value 指向输入缓冲
type Packet struct {
	Type    uint8
	Channel uint8
	Value   []byte
}

// Parse 解析一帧到 p；不分配内存
func Parse(data []byte, p *Packet) Result {
	if len(data) < 5 {
		return TooShort
	}
	if data[0] != StartMarker {
		return BadMarker
	}
	last := len(data) - 1
	if Crc8(data[:last]) != data[last] {
		return BadChecksum
	}
	p.Type = data[1]
	p.Channel = data[2]
	body := data[3:last]
	switch p.Type {
	case TypeBool:
		if len(body) != 1 {
			return BadLength
		}
	case TypeInt32, TypeFloat:
		if len(body) != 4 {
			return BadLength
		}
	case TypeString, TypeBytes:
		if int(body[0]) != len(body)-1 {
			return BadLength
		}
		body = body[1:]
	case TypeStruct:
	default:
		return UnknownType
	}
	p.Value = body
	return OK
}

func (p *Packet) Bool() bool { return len(p.Value) == 1 && p.Value[0] != 0 }

func (p *Packet) Int32() int32 {
	if len(p.Value) != 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(p.Value))
}

func (p *Packet) Float() float32 {
	if len(p.Value) != 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.Value))
}
