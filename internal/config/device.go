package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/taoyao-code/lbe-link/internal/protocol/secure"
)

// 安全等级取值
const (
	SecurityNone      = "none"
	SecurityHMAC      = "hmac"
	SecurityEncrypted = "encrypted"
)

const (
	// DefaultDevicePort 设备数据约定端口
	DefaultDevicePort = 8888
	// MaxPayloadLimit 单帧值载荷上限（长度前缀为1字节）
	MaxPayloadLimit = 255
	// DefaultConnectionTimeoutSeconds 默认无上行超时
	DefaultConnectionTimeoutSeconds = 5.0
)

var (
	ErrDeviceName      = errors.New("device name is required")
	ErrRemoteAddress   = errors.New("remote address must be an IP literal")
	ErrRemotePort      = errors.New("remote port out of range")
	ErrSecurityLevel   = errors.New("unknown security level")
	ErrTimeout         = errors.New("connection timeout must be positive")
	ErrMaxPayloadBytes = errors.New("max payload bytes must be within 1..255")
)

// DeviceConfig 单个设备会话配置
type DeviceConfig struct {
	Name          string `mapstructure:"name"`
	RemoteAddress string `mapstructure:"remoteAddress"`
	RemotePort    int    `mapstructure:"remotePort"`
	// LocalAddress 本地绑定地址，为空时使用临时端口
	LocalAddress string `mapstructure:"localAddress"`
	Broadcast    bool   `mapstructure:"broadcast"`

	SecurityLevel string `mapstructure:"securityLevel"`
	SharedSecret  string `mapstructure:"sharedSecret"`
	AESKeyHex     string `mapstructure:"aesKeyHex"`
	HMACKeyHex    string `mapstructure:"hmacKeyHex"`

	ConnectionTimeoutSeconds float64 `mapstructure:"connectionTimeoutSeconds"`
	MaxPayloadBytes          int     `mapstructure:"maxPayloadBytes"`

	// SendRatePerSec 发送速率上限，0 表示不限
	SendRatePerSec int `mapstructure:"sendRatePerSec"`
	SendBurst      int `mapstructure:"sendBurst"`

	// AcceptAnySource 为 false 时只接受来自 RemoteAddress 的数据报
	AcceptAnySource bool `mapstructure:"acceptAnySource"`
}

// ApplyDefaults 补齐未配置字段
func (c *DeviceConfig) ApplyDefaults() {
	if c.RemotePort == 0 {
		c.RemotePort = DefaultDevicePort
	}
	if c.SecurityLevel == "" {
		c.SecurityLevel = SecurityNone
	}
	c.SecurityLevel = strings.ToLower(c.SecurityLevel)
	if c.ConnectionTimeoutSeconds == 0 {
		c.ConnectionTimeoutSeconds = DefaultConnectionTimeoutSeconds
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = MaxPayloadLimit
	}
}

// Validate 校验配置取值范围
func (c DeviceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrDeviceName
	}
	if _, err := netip.ParseAddr(c.RemoteAddress); err != nil {
		return fmt.Errorf("%w: %q", ErrRemoteAddress, c.RemoteAddress)
	}
	if c.RemotePort <= 0 || c.RemotePort > 65535 {
		return fmt.Errorf("%w: %d", ErrRemotePort, c.RemotePort)
	}
	switch c.SecurityLevel {
	case SecurityNone, SecurityHMAC, SecurityEncrypted:
	default:
		return fmt.Errorf("%w: %q", ErrSecurityLevel, c.SecurityLevel)
	}
	// 安全模式下两把显式密钥都不全时要求可用的共享密钥
	if c.SecurityLevel != SecurityNone && (c.AESKeyHex == "" || c.HMACKeyHex == "") && secure.IsPlaceholder(c.SharedSecret) {
		return secure.ErrPlaceholderSecret
	}
	if c.ConnectionTimeoutSeconds <= 0 {
		return ErrTimeout
	}
	if c.MaxPayloadBytes < 1 || c.MaxPayloadBytes > MaxPayloadLimit {
		return fmt.Errorf("%w: %d", ErrMaxPayloadBytes, c.MaxPayloadBytes)
	}
	return nil
}

// ConnectionTimeout 以 time.Duration 返回超时
func (c DeviceConfig) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds * float64(time.Second))
}
