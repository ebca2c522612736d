package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrDuplicateName = errors.New("device: duplicate session name")

// Manager 按名称管理多个设备会话，由同一 tick 协程驱动
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add 注册会话，名称重复返回 ErrDuplicateName
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name())
	}
	m.sessions[s.Name()] = s
	m.order = append(m.order, s.Name())
	return nil
}

// Get 按名称查找会话
func (m *Manager) Get(name string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[name]
	m.mu.RUnlock()
	return s, ok
}

// Sessions 按注册顺序返回全部会话
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.sessions[name])
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// InitializeAll 逐个初始化，返回失败的会话名；失败不影响其他会话
func (m *Manager) InitializeAll() map[string]error {
	failed := make(map[string]error)
	for _, s := range m.Sessions() {
		if err := s.InitializeDevice(); err != nil {
			failed[s.Name()] = err
		}
	}
	return failed
}

// TickAll 对所有会话执行一次 Tick
func (m *Manager) TickAll() {
	for _, s := range m.Sessions() {
		s.Tick()
	}
}

// ConnectedCount 当前在线的会话数
func (m *Manager) ConnectedCount() int {
	n := 0
	for _, s := range m.Sessions() {
		if s.IsDeviceConnected() {
			n++
		}
	}
	return n
}

// DisconnectAll 断开全部会话
func (m *Manager) DisconnectAll() error {
	var errs []error
	for _, s := range m.Sessions() {
		if err := s.DisconnectDevice(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Statuses 按名称排序的状态视图
func (m *Manager) Statuses(withChannels bool) []Status {
	list := m.Sessions()
	out := make([]Status, 0, len(list))
	for _, s := range list {
		out = append(out, s.Status(withChannels))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
