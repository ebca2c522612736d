package health

import "sync/atomic"

// Readiness 启动阶段就绪标记：设备链路已启动、HTTP 已监听
type Readiness struct {
	linkReady atomic.Bool
	httpReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetLinkReady(v bool) { r.linkReady.Store(v) }
func (r *Readiness) SetHTTPReady(v bool) { r.httpReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.linkReady.Load() && r.httpReady.Load()
}
