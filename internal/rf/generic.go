package rf

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/protocol/frame"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

const eventQueueSize = 64

// Generic USB 串口接收模块：模块把解码后的按键以 ButtonEvent 结构体帧写到串口
type Generic struct {
	cfg     Config
	open    PortOpener
	log     *zap.Logger
	rolling *RollingCodes

	mu        sync.Mutex
	port      Port
	stop      chan struct{}
	done      chan struct{}
	connected atomic.Bool
	events    chan wire.ButtonEvent
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

func newGeneric(cfg Config, open PortOpener, log *zap.Logger) *Generic {
	return &Generic{
		cfg:     cfg,
		open:    open,
		log:     log,
		rolling: NewRollingCodes(cfg.RollingWindow),
		events:  make(chan wire.ButtonEvent, eventQueueSize),
	}
}

// Initialize 打开串口并启动读协程（串口读取只能阻塞，事件经队列交给 tick 线程）
func (g *Generic) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.port != nil {
		return nil
	}
	p, err := g.open(g.cfg)
	if err != nil {
		g.log.Warn("rf receiver open failed", zap.Error(err))
		return err
	}
	g.port = p
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	g.connected.Store(true)
	go g.readLoop(p, g.stop, g.done)
	g.log.Info("rf receiver initialized", zap.String("device", g.cfg.Device), zap.Int("baud", g.cfg.Baud))
	return nil
}

func (g *Generic) readLoop(p Port, stop, done chan struct{}) {
	defer close(done)
	dec := frame.NewStreamDecoder(wire.DefaultContract().StructSize)
	buf := make([]byte, 256)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := p.Read(buf)
		if n > 0 {
			for _, f := range dec.Feed(buf[:n]) {
				g.handleFrame(f)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// 读超时
				continue
			}
			select {
			case <-stop:
			default:
				g.log.Warn("rf serial read failed", zap.Error(err))
				g.connected.Store(false)
			}
			return
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

func (g *Generic) handleFrame(f *frame.Frame) {
	if f.Type != frame.TypeStruct || f.Channel != wire.ChannelButtonEvents {
		return
	}
	var ev wire.ButtonEvent
	if err := ev.UnmarshalWire(f.Payload); err != nil {
		g.log.Debug("rf malformed button event", zap.Error(err))
		return
	}
	if !g.rolling.Validate(ev.Button, ev.Code) {
		g.rejected.Add(1)
		g.log.Debug("rf rolling code rejected", zap.Uint8("button", ev.Button), zap.Uint32("code", ev.Code))
		return
	}
	select {
	case g.events <- ev:
	default:
		g.dropped.Add(1)
	}
}

// Shutdown 关闭串口并等待读协程退出，可重复调用
func (g *Generic) Shutdown() error {
	g.mu.Lock()
	p, stop, done := g.port, g.stop, g.done
	g.port = nil
	g.mu.Unlock()
	if p == nil {
		return nil
	}
	close(stop)
	err := p.Close()
	<-done
	g.connected.Store(false)
	g.log.Info("rf receiver shut down")
	return err
}

func (g *Generic) IsConnected() bool { return g.connected.Load() }

func (g *Generic) ButtonEvents() []wire.ButtonEvent {
	var out []wire.ButtonEvent
	for {
		select {
		case ev := <-g.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (g *Generic) ValidateRollingCode(button uint8, code uint32) bool {
	return g.rolling.Validate(button, code)
}

func (g *Generic) SetLearning(enabled bool) {
	g.rolling.SetLearning(enabled)
	g.log.Info("rf learning mode", zap.Bool("enabled", enabled))
}

// Rejected 滚动码校验失败的事件数
func (g *Generic) Rejected() uint64 { return g.rejected.Load() }
