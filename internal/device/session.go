package device

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/limiter"
	"github.com/taoyao-code/lbe-link/internal/logging"
	"github.com/taoyao-code/lbe-link/internal/metrics"
	"github.com/taoyao-code/lbe-link/internal/protocol/secure"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
	"github.com/taoyao-code/lbe-link/internal/registry"
	"github.com/taoyao-code/lbe-link/internal/transport/udp"
)

var (
	ErrNotInitialized     = errors.New("device: session not initialized")
	ErrAlreadyInitialized = errors.New("device: session already initialized")
	ErrDisconnected       = errors.New("device: session disconnected")
	ErrRateLimited        = errors.New("device: send rate limited")
)

// Session 一个设备会话：一个 UDP 端点、一组派生密钥、一个通道缓存
// 由外部 tick 循环单线程驱动；互斥锁仅用于状态接口的并发读取
type Session struct {
	cfg          config.DeviceConfig
	id           string
	baseLog      *zap.Logger
	log          *zap.Logger
	metrics      *metrics.LinkMetrics
	now          func() time.Time
	contract     *wire.Contract
	limiter      *limiter.Limiter
	limiterSet   bool
	reg          *registry.Registry
	onDisconnect func(name string) // 仅在打开过的传输被关闭时调用

	mu           sync.Mutex
	state        State
	tr           *udp.Transport
	env          secure.Envelope
	remote       netip.Addr
	filterSource bool
	lastRx       time.Time
	stats        Stats
}

// New 创建会话（不打开套接字），需调用 InitializeDevice
func New(cfg config.DeviceConfig, opts ...Option) *Session {
	cfg.ApplyDefaults()
	s := &Session{
		cfg:     cfg,
		id:      uuid.NewString(),
		baseLog: zap.NewNop(),
		now:     time.Now,
		stats:   Stats{Drops: make(map[string]uint64)},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.limiterSet {
		s.limiter = limiter.New(float64(cfg.SendRatePerSec), cfg.SendBurst)
	}
	s.log = logging.Device(s.baseLog, cfg.Name, s.id)
	s.reg = registry.NewWithClock(s.now)
	s.setStateMetric(StateUninitialized)
	return s
}

// InitializeDevice 校验配置、派生密钥并打开传输
// 失败时会话保持原状态，可修正后重试
func (s *Session) InitializeDevice() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized && s.state != StateDisconnected {
		return ErrAlreadyInitialized
	}
	if err := s.cfg.Validate(); err != nil {
		s.log.Warn("device config invalid", zap.Error(err))
		return fmt.Errorf("device %s: %w", s.cfg.Name, err)
	}
	level, err := secure.ParseLevel(s.cfg.SecurityLevel)
	if err != nil {
		return fmt.Errorf("device %s: %w", s.cfg.Name, err)
	}
	env := secure.Envelope{Level: level}
	if level != secure.LevelNone {
		keys, err := secure.DeriveKeys(secure.KeyConfig{
			SharedSecret: s.cfg.SharedSecret,
			AESKeyHex:    s.cfg.AESKeyHex,
			HMACKeyHex:   s.cfg.HMACKeyHex,
		})
		if err != nil {
			s.log.Warn("device key setup failed", zap.String("security", level.String()), zap.Error(err))
			return fmt.Errorf("device %s: %w", s.cfg.Name, err)
		}
		env.Keys = keys
	}

	tr, err := udp.Open(s.cfg.RemoteAddress, s.cfg.RemotePort, udp.Options{
		Broadcast: s.cfg.Broadcast,
		LocalAddr: s.cfg.LocalAddress,
	})
	if err != nil {
		s.log.Warn("device transport open failed", zap.Error(err))
		return fmt.Errorf("device %s: %w", s.cfg.Name, err)
	}

	s.tr = tr
	s.env = env
	s.remote = tr.RemoteAddr().Addr()
	s.filterSource = !s.cfg.AcceptAnySource && !s.cfg.Broadcast
	s.lastRx = s.now()
	s.setStateLocked(StateConnecting)
	s.log.Info("device initialized",
		zap.String("remote", tr.RemoteAddr().String()),
		zap.String("local", tr.LocalAddr().String()),
		zap.String("security", level.String()),
		zap.Duration("timeout", s.cfg.ConnectionTimeout()))
	return nil
}

// DisconnectDevice 关闭传输并清空通道缓存，可重复调用
func (s *Session) DisconnectDevice() error {
	s.mu.Lock()
	tr := s.tr
	s.tr = nil
	prev := s.state
	if prev != StateDisconnected {
		s.setStateLocked(StateDisconnected)
	}
	s.mu.Unlock()

	var err error
	if tr != nil {
		err = tr.Close()
	}
	s.reg.Clear()
	if tr != nil && s.onDisconnect != nil {
		s.onDisconnect(s.cfg.Name)
	}
	if prev != StateDisconnected {
		s.log.Info("device disconnected", zap.String("from", prev.String()))
	}
	return err
}

// Tick 排空接收队列并执行连接健康检查
func (s *Session) Tick() {
	s.Poll()
	s.CheckConnectionHealth()
}

// CheckConnectionHealth 超过超时时间未收到数据则转为 TimedOut，返回是否在线
func (s *Session) CheckConnectionHealth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnected || s.state == StateConnecting {
		idle := s.now().Sub(s.lastRx)
		if idle > s.cfg.ConnectionTimeout() {
			s.setStateLocked(StateTimedOut)
			s.log.Warn("device timed out", zap.Duration("idle", idle))
		}
	}
	return s.state == StateConnected
}

// IsDeviceConnected 是否处于 Connected
func (s *Session) IsDeviceConnected() bool {
	return s.State() == StateConnected
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Name() string { return s.cfg.Name }

// ID 本次会话实例的唯一标识
func (s *Session) ID() string { return s.id }

func (s *Session) Config() config.DeviceConfig { return s.cfg }

// LocalAddr 本地绑定地址；未初始化时为零值
func (s *Session) LocalAddr() netip.AddrPort {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return netip.AddrPort{}
	}
	return s.tr.LocalAddr()
}

// Registry 暴露通道缓存（只读使用或订阅）
func (s *Session) Registry() *registry.Registry { return s.reg }

func (s *Session) setStateLocked(st State) {
	s.state = st
	s.setStateMetric(st)
}

func (s *Session) setStateMetric(st State) {
	if s.metrics != nil {
		s.metrics.SessionState.WithLabelValues(s.cfg.Name).Set(float64(st))
	}
}
