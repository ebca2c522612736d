package rf

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

// Sink 按键事件的下游，通常是设备会话
type Sink interface {
	Name() string
	SendStruct(channel uint8, v wire.Marshaler) error
}

// Bridge 在 tick 线程上取出接收器事件并转发到各下游
type Bridge struct {
	recv  Receiver
	sinks []Sink
	log   *zap.Logger

	mu         sync.Mutex
	forwarded  uint64
	sendErrors uint64
	last       *wire.ButtonEvent
	lastAt     time.Time
}

func NewBridge(recv Receiver, sinks []Sink, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{recv: recv, sinks: sinks, log: log.Named("rf")}
}

// Poll 非阻塞，返回本次取出的事件数
func (b *Bridge) Poll() int {
	events := b.recv.ButtonEvents()
	if len(events) == 0 {
		return 0
	}
	var failed uint64
	for _, ev := range events {
		for _, s := range b.sinks {
			if err := s.SendStruct(wire.ChannelButtonEvents, ev); err != nil {
				failed++
				b.log.Debug("forward button event failed", zap.String("device", s.Name()), zap.Error(err))
			}
		}
	}

	last := events[len(events)-1]
	b.mu.Lock()
	b.forwarded += uint64(len(events))
	b.sendErrors += failed
	b.last = &last
	b.lastAt = time.Now()
	b.mu.Unlock()
	return len(events)
}

// BridgeStatus 接收器与转发统计
type BridgeStatus struct {
	Connected  bool              `json:"connected"`
	Sinks      []string          `json:"sinks"`
	Forwarded  uint64            `json:"forwarded"`
	SendErrors uint64            `json:"send_errors"`
	Last       *wire.ButtonEvent `json:"last,omitempty"`
	LastAt     *time.Time        `json:"last_at,omitempty"`
}

func (b *Bridge) Status() BridgeStatus {
	st := BridgeStatus{Connected: b.recv.IsConnected(), Sinks: make([]string, 0, len(b.sinks))}
	for _, s := range b.sinks {
		st.Sinks = append(st.Sinks, s.Name())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	st.Forwarded, st.SendErrors = b.forwarded, b.sendErrors
	if b.last != nil {
		ev, at := *b.last, b.lastAt
		st.Last, st.LastAt = &ev, &at
	}
	return st
}

// Shutdown 关闭接收器
func (b *Bridge) Shutdown() error { return b.recv.Shutdown() }
