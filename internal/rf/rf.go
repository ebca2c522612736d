// Package rf 433MHz 遥控接收器抽象：Generic 串口后端 + 各硬件后端占位实现
package rf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

var (
	ErrUnknownBackend = errors.New("rf: unknown backend")
	ErrNotImplemented = errors.New("rf: backend not implemented")
)

// Receiver 接收器能力集合
type Receiver interface {
	Initialize() error
	Shutdown() error
	IsConnected() bool
	// ButtonEvents 取出自上次调用以来通过校验的按键事件（非阻塞）
	ButtonEvents() []wire.ButtonEvent
	ValidateRollingCode(button uint8, code uint32) bool
	SetLearning(enabled bool)
}

// Backend 硬件后端
type Backend string

const (
	BackendGeneric Backend = "generic"
	BackendRTLSDR  Backend = "rtlsdr"
	BackendCC1101  Backend = "cc1101"
	BackendRFM69   Backend = "rfm69"
	BackendRFM95   Backend = "rfm95"
)

// Config 接收器配置
type Config struct {
	Backend     Backend
	Device      string        // 串口设备，如 /dev/ttyUSB0
	Baud        int           // 默认 115200
	ReadTimeout time.Duration // 串口读超时，默认 50ms
	// RollingWindow 滚动码向前容忍窗口，默认 16
	RollingWindow uint32
}

func (c *Config) applyDefaults() {
	if c.Baud <= 0 {
		c.Baud = 115200
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 50 * time.Millisecond
	}
	if c.RollingWindow == 0 {
		c.RollingWindow = 16
	}
}

// Option 可选项
type Option func(*options)

type options struct {
	log  *zap.Logger
	open PortOpener
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPortOpener 替换串口打开方式（测试注入）
func WithPortOpener(fn PortOpener) Option {
	return func(o *options) { o.open = fn }
}

// New 按配置选择后端
func New(cfg Config, opts ...Option) (Receiver, error) {
	cfg.applyDefaults()
	o := options{log: zap.NewNop(), open: OpenSerial}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	log := o.log.Named("rf").With(zap.String("backend", string(cfg.Backend)))

	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendGeneric, "":
		return newGeneric(cfg, o.open, log), nil
	case BackendRTLSDR, BackendCC1101, BackendRFM69, BackendRFM95:
		return &stub{backend: cfg.Backend, log: log}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
