package frame

import "errors"

var (
	// ErrTooShort 帧长度不足（marker+type+channel+1字节载荷+crc）
	ErrTooShort = errors.New("frame too short")
	// ErrBadMarker 起始字节不是 0xAA
	ErrBadMarker = errors.New("bad start marker")
	// ErrBadChecksum 校验和不匹配
	ErrBadChecksum = errors.New("checksum mismatch")
	// ErrUnknownType 类型字段未定义
	ErrUnknownType = errors.New("unknown value type")
	// ErrBadLength 载荷长度与类型不符
	ErrBadLength = errors.New("payload length does not match type")
	// ErrPayloadTooLarge 值超过 255 字节
	ErrPayloadTooLarge = errors.New("payload exceeds 255 bytes")
	// ErrTypeMismatch 按错误的类型读取帧值
	ErrTypeMismatch = errors.New("frame type mismatch")
)

// Reason 将解码错误映射为指标标签
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooShort):
		return "too_short"
	case errors.Is(err, ErrBadMarker):
		return "bad_marker"
	case errors.Is(err, ErrBadChecksum):
		return "bad_checksum"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrBadLength), errors.Is(err, ErrPayloadTooLarge):
		return "bad_length"
	default:
		return "other"
	}
}
