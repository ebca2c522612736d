package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// 信封格式：[IV 4][密文（与明文等长）][HMAC-SHA256 截断 8]
// 标签覆盖 header ‖ IV ‖ 密文；header 为帧头的类型与通道字节，防止密文被挪到别的通道
const (
	IVSize   = 4
	TagSize  = 8
	Overhead = IVSize + TagSize
)

var (
	// ErrTagMismatch HMAC 标签校验失败，未做解密
	ErrTagMismatch = errors.New("authentication tag mismatch")
	// ErrSealedTooShort 信封长度不足 IV + 标签
	ErrSealedTooShort = errors.New("sealed packet too short")
	// ErrNoKeys 安全模式下缺少密钥
	ErrNoKeys = errors.New("keys not configured")
)

// SealedPacket 加密后的载荷
type SealedPacket struct {
	IV         uint32
	Ciphertext []byte
	Tag        [TagSize]byte
}

// Bytes 按线上格式序列化（IV 大端）
func (p *SealedPacket) Bytes() []byte {
	out := make([]byte, IVSize+len(p.Ciphertext)+TagSize)
	binary.BigEndian.PutUint32(out[:IVSize], p.IV)
	copy(out[IVSize:], p.Ciphertext)
	copy(out[IVSize+len(p.Ciphertext):], p.Tag[:])
	return out
}

// ParseSealed 从线上格式解析信封
func ParseSealed(b []byte) (*SealedPacket, error) {
	if len(b) < Overhead {
		return nil, ErrSealedTooShort
	}
	p := &SealedPacket{
		IV:         binary.BigEndian.Uint32(b[:IVSize]),
		Ciphertext: append([]byte(nil), b[IVSize:len(b)-TagSize]...),
	}
	copy(p.Tag[:], b[len(b)-TagSize:])
	return p, nil
}

// NewIV 从 crypto/rand 取 32 位随机 IV
func NewIV() (uint32, error) {
	var b [IVSize]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generate iv: %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// Seal 使用随机 IV 进行 AES-128-CTR 加密并附加截断 HMAC
func Seal(keys *Keys, header, plaintext []byte) (*SealedPacket, error) {
	if keys == nil {
		return nil, ErrNoKeys
	}
	iv, err := NewIV()
	if err != nil {
		return nil, err
	}
	ct, err := ctr(keys, iv, plaintext)
	if err != nil {
		return nil, err
	}
	p := &SealedPacket{IV: iv, Ciphertext: ct}
	p.Tag = tag(keys, header, iv, ct)
	return p, nil
}

// Open 先校验标签（常量时间比较），通过后才解密
// header 必须与 Seal 时一致
func Open(keys *Keys, header []byte, p *SealedPacket) ([]byte, error) {
	if keys == nil {
		return nil, ErrNoKeys
	}
	if p == nil {
		return nil, ErrSealedTooShort
	}
	want := tag(keys, header, p.IV, p.Ciphertext)
	if !hmacEqual(want[:], p.Tag[:]) {
		return nil, ErrTagMismatch
	}
	return ctr(keys, p.IV, p.Ciphertext)
}

// ctr 计数器块 = IV(4, 大端) ‖ 12 字节 0，加解密相同
func ctr(keys *Keys, iv uint32, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(keys.AES[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	var counter [aes.BlockSize]byte
	binary.BigEndian.PutUint32(counter[:IVSize], iv)
	out := make([]byte, len(in))
	cipher.NewCTR(block, counter[:]).XORKeyStream(out, in)
	return out, nil
}

func tag(keys *Keys, header []byte, iv uint32, data []byte) [TagSize]byte {
	mac := hmac.New(sha256.New, keys.HMAC[:])
	_, _ = mac.Write(header)
	var ivb [IVSize]byte
	binary.BigEndian.PutUint32(ivb[:], iv)
	_, _ = mac.Write(ivb[:])
	_, _ = mac.Write(data)
	var t [TagSize]byte
	copy(t[:], mac.Sum(nil))
	return t
}

func hmacEqual(a, b []byte) bool { return hmac.Equal(a, b) }
