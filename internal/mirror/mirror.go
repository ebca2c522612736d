// Package mirror 把设备通道更新异步镜像到外部存储
package mirror

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/registry"
	redisstorage "github.com/taoyao-code/lbe-link/internal/storage/redis"
)

// Store 镜像写入端
type Store interface {
	Write(ctx context.Context, rec redisstorage.ChannelRecord) error
	ClearDevice(ctx context.Context, device string) error
}

// op 队列元素：写一条记录，或清空一个设备
type op struct {
	rec   redisstorage.ChannelRecord
	clear bool
}

// Source 可订阅全部通道更新的会话
type Source interface {
	Name() string
	SubscribeAll(fn registry.Handler) (cancel func())
}

const writeTimeout = 2 * time.Second

// Mirror 入队不阻塞 tick 线程，队列满时丢弃；单独协程写存储
type Mirror struct {
	store   Store
	logger  *zap.Logger
	queue   chan op
	dropped prometheus.Counter

	stopOnce sync.Once
	stopC    chan struct{}
	wg       sync.WaitGroup

	written   atomic.Int64
	failed    atomic.Int64
	dropCount atomic.Int64
}

// New queueSize<=0 时取 1024；dropped 可为 nil
func New(store Store, queueSize int, dropped prometheus.Counter, logger *zap.Logger) *Mirror {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		store:   store,
		logger:  logger.Named("mirror"),
		queue:   make(chan op, queueSize),
		dropped: dropped,
		stopC:   make(chan struct{}),
	}
}

// Attach 订阅会话的全部通道更新
func (m *Mirror) Attach(src Source) (cancel func()) {
	name := src.Name()
	return src.SubscribeAll(func(ch uint8, v registry.Value) {
		m.Enqueue(name, ch, v)
	})
}

// Enqueue 非阻塞入队，返回是否成功
func (m *Mirror) Enqueue(device string, channel uint8, v registry.Value) bool {
	rec := redisstorage.ChannelRecord{
		Device:  device,
		Channel: channel,
		Kind:    v.Kind.String(),
		Value:   v.Display(),
		Raw:     v.Raw,
		Updated: v.Updated,
	}
	return m.push(op{rec: rec})
}

// ClearDevice 排队删除设备镜像，与之前入队的记录保持先后顺序
func (m *Mirror) ClearDevice(device string) bool {
	if !m.push(op{rec: redisstorage.ChannelRecord{Device: device}, clear: true}) {
		m.logger.Warn("mirror clear dropped, queue full", zap.String("device", device))
		return false
	}
	return true
}

func (m *Mirror) push(o op) bool {
	select {
	case m.queue <- o:
		return true
	default:
		m.dropCount.Add(1)
		if m.dropped != nil {
			m.dropped.Inc()
		}
		return false
	}
}

// Start 启动写协程
func (m *Mirror) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

func (m *Mirror) run(ctx context.Context) {
	m.logger.Info("mirror worker started")
	for {
		select {
		case <-ctx.Done():
			m.drain()
			m.logger.Info("mirror worker stopped", zap.String("by", "context"))
			return
		case <-m.stopC:
			m.drain()
			m.logger.Info("mirror worker stopped")
			return
		case o := <-m.queue:
			m.apply(o)
		}
	}
}

// drain 停止前写出已入队记录
func (m *Mirror) drain() {
	for {
		select {
		case o := <-m.queue:
			m.apply(o)
		default:
			return
		}
	}
}

func (m *Mirror) apply(o op) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if o.clear {
		if err := m.store.ClearDevice(ctx, o.rec.Device); err != nil {
			m.failed.Add(1)
			m.logger.Warn("mirror clear failed", zap.String("device", o.rec.Device), zap.Error(err))
		}
		return
	}
	rec := o.rec
	if err := m.store.Write(ctx, rec); err != nil {
		m.failed.Add(1)
		m.logger.Warn("mirror write failed",
			zap.String("device", rec.Device),
			zap.Uint8("channel", rec.Channel),
			zap.Error(err))
		return
	}
	m.written.Add(1)
}

// Stop 停止写协程并等待退出，随后写出协程退出后才入队的记录；可重复调用
func (m *Mirror) Stop() {
	m.stopOnce.Do(func() { close(m.stopC) })
	m.wg.Wait()
	m.drain()
}

// Stats 统计
type Stats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Queued  int   `json:"queued"`
}

func (m *Mirror) Stats() Stats {
	return Stats{
		Written: m.written.Load(),
		Failed:  m.failed.Load(),
		Dropped: m.dropCount.Load(),
		Queued:  len(m.queue),
	}
}
