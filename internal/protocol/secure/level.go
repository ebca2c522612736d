package secure

import (
	"errors"
	"fmt"
	"strings"
)

// Level 会话安全等级
type Level uint8

const (
	LevelNone Level = iota
	LevelHMAC
	LevelEncrypted
)

// ErrRejected 信封被拒绝；对外不区分标签错误与格式错误
var ErrRejected = errors.New("envelope rejected")

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelHMAC:
		return "hmac"
	case LevelEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel 解析配置中的安全等级
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LevelNone, nil
	case "hmac":
		return LevelHMAC, nil
	case "encrypted":
		return LevelEncrypted, nil
	default:
		return LevelNone, fmt.Errorf("unknown security level %q", s)
	}
}

// Envelope 按安全等级包装帧载荷
//   - LevelNone: 原样透传
//   - LevelHMAC: [IV][明文][标签]，只认证不加密
//   - LevelEncrypted: [IV][密文][标签]
type Envelope struct {
	Level Level
	Keys  *Keys
}

// Overhead 包装后增加的字节数
func (e Envelope) Overhead() int {
	if e.Level == LevelNone {
		return 0
	}
	return Overhead
}

// Wrap 包装出站载荷；header 为帧头类型与通道字节，参与认证
func (e Envelope) Wrap(header, body []byte) ([]byte, error) {
	switch e.Level {
	case LevelNone:
		return body, nil
	case LevelHMAC:
		if e.Keys == nil {
			return nil, ErrNoKeys
		}
		iv, err := NewIV()
		if err != nil {
			return nil, err
		}
		p := &SealedPacket{IV: iv, Ciphertext: append([]byte(nil), body...)}
		p.Tag = tag(e.Keys, header, iv, p.Ciphertext)
		return p.Bytes(), nil
	case LevelEncrypted:
		p, err := Seal(e.Keys, header, body)
		if err != nil {
			return nil, err
		}
		return p.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported level %s", e.Level)
	}
}

// Unwrap 校验并还原入站载荷，任何失败统一返回 ErrRejected
func (e Envelope) Unwrap(header, b []byte) ([]byte, error) {
	if e.Level == LevelNone {
		return b, nil
	}
	p, err := ParseSealed(b)
	if err != nil {
		return nil, ErrRejected
	}
	switch e.Level {
	case LevelHMAC:
		if e.Keys == nil {
			return nil, ErrRejected
		}
		want := tag(e.Keys, header, p.IV, p.Ciphertext)
		if !hmacEqual(want[:], p.Tag[:]) {
			return nil, ErrRejected
		}
		return p.Ciphertext, nil
	case LevelEncrypted:
		pt, err := Open(e.Keys, header, p)
		if err != nil {
			return nil, ErrRejected
		}
		return pt, nil
	default:
		return nil, ErrRejected
	}
}
