package secure

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	AESKeySize  = 16
	HMACKeySize = 32
)

// HKDF 固定盐与子密钥标签，两端必须一致
var (
	kdfSalt     = []byte("lbe-link/device-keys/v1")
	kdfInfoAES  = []byte("aes-128-ctr")
	kdfInfoHMAC = []byte("hmac-sha256")
)

var (
	// ErrPlaceholderSecret 共享密钥为空或仍为默认占位符
	ErrPlaceholderSecret = errors.New("shared secret is empty or a placeholder")
	// ErrMalformedKey 十六进制密钥无法解析
	ErrMalformedKey = errors.New("malformed hex key")
	// ErrKeyLength 十六进制密钥长度不对
	ErrKeyLength = errors.New("wrong key length")
)

// placeholderPrefixes 已知的默认占位密钥
var placeholderPrefixes = []string{"CHANGE_ME", "CHANGEME", "DEFAULT_SECRET"}

// KeyConfig 密钥来源：显式十六进制密钥优先，其余由共享密钥派生
type KeyConfig struct {
	SharedSecret string
	AESKeyHex    string
	HMACKeyHex   string
}

// Keys 会话期内不可变的派生密钥
type Keys struct {
	AES  [AESKeySize]byte
	HMAC [HMACKeySize]byte
}

// IsPlaceholder 判断共享密钥是否不可用
func IsPlaceholder(secret string) bool {
	s := strings.ToUpper(strings.TrimSpace(secret))
	if s == "" {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// DeriveKeys 生成 AES 与 HMAC 子密钥
func DeriveKeys(cfg KeyConfig) (*Keys, error) {
	k := &Keys{}
	haveAES, haveHMAC := cfg.AESKeyHex != "", cfg.HMACKeyHex != ""

	if haveAES {
		if err := decodeKey("aes", cfg.AESKeyHex, k.AES[:]); err != nil {
			return nil, err
		}
	}
	if haveHMAC {
		if err := decodeKey("hmac", cfg.HMACKeyHex, k.HMAC[:]); err != nil {
			return nil, err
		}
	}
	if haveAES && haveHMAC {
		return k, nil
	}

	if IsPlaceholder(cfg.SharedSecret) {
		return nil, ErrPlaceholderSecret
	}
	if !haveAES {
		if err := expand(cfg.SharedSecret, kdfInfoAES, k.AES[:]); err != nil {
			return nil, err
		}
	}
	if !haveHMAC {
		if err := expand(cfg.SharedSecret, kdfInfoHMAC, k.HMAC[:]); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func decodeKey(name, s string, dst []byte) error {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %s key: %v", ErrMalformedKey, name, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: %s key wants %d bytes, got %d", ErrKeyLength, name, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

func expand(secret string, info, dst []byte) error {
	r := hkdf.New(sha256.New, []byte(secret), kdfSalt, info)
	if _, err := io.ReadFull(r, dst); err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	return nil
}
