package secure

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeys_FromSecret(t *testing.T) {
	a, err := DeriveKeys(KeyConfig{SharedSecret: "test-secret"})
	require.NoError(t, err)
	b, err := DeriveKeys(KeyConfig{SharedSecret: "test-secret"})
	require.NoError(t, err)
	c, err := DeriveKeys(KeyConfig{SharedSecret: "other-secret"})
	require.NoError(t, err)

	assert.Equal(t, a, b, "derivation must be deterministic")
	assert.NotEqual(t, a.AES, c.AES)
	assert.NotEqual(t, a.HMAC, c.HMAC)
	assert.False(t, bytes.Equal(a.AES[:], a.HMAC[:AESKeySize]), "sub-keys use distinct labels")
}

func TestDeriveKeys_ExplicitHex(t *testing.T) {
	aesHex := strings.Repeat("11", AESKeySize)
	hmacHex := strings.Repeat("22", HMACKeySize)

	k, err := DeriveKeys(KeyConfig{AESKeyHex: aesHex, HMACKeyHex: hmacHex})
	require.NoError(t, err, "explicit keys need no shared secret")
	assert.Equal(t, aesHex, hex.EncodeToString(k.AES[:]))
	assert.Equal(t, hmacHex, hex.EncodeToString(k.HMAC[:]))

	// 只给出一个显式密钥时，另一个仍由共享密钥派生
	derived, err := DeriveKeys(KeyConfig{SharedSecret: "venue", AESKeyHex: aesHex})
	require.NoError(t, err)
	full, err := DeriveKeys(KeyConfig{SharedSecret: "venue"})
	require.NoError(t, err)
	assert.Equal(t, aesHex, hex.EncodeToString(derived.AES[:]))
	assert.Equal(t, full.HMAC, derived.HMAC)
}

func TestDeriveKeys_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  KeyConfig
		want error
	}{
		{"空共享密钥", KeyConfig{}, ErrPlaceholderSecret},
		{"默认占位符", KeyConfig{SharedSecret: "CHANGE_ME_IN_PRODUCTION_1234"}, ErrPlaceholderSecret},
		{"小写占位符", KeyConfig{SharedSecret: " change_me "}, ErrPlaceholderSecret},
		{"非法十六进制", KeyConfig{AESKeyHex: "zz", HMACKeyHex: strings.Repeat("00", 32)}, ErrMalformedKey},
		{"AES长度错误", KeyConfig{AESKeyHex: "0011", HMACKeyHex: strings.Repeat("00", 32)}, ErrKeyLength},
		{"HMAC长度错误", KeyConfig{AESKeyHex: strings.Repeat("00", 16), HMACKeyHex: strings.Repeat("00", 16)}, ErrKeyLength},
		{"部分显式且占位", KeyConfig{SharedSecret: "CHANGE_ME", AESKeyHex: strings.Repeat("00", 16)}, ErrPlaceholderSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKeys(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
