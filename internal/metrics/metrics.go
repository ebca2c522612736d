package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// LinkMetrics 设备链路指标
type LinkMetrics struct {
	FramesSent     *prometheus.CounterVec // labels: device, type
	FramesReceived *prometheus.CounterVec // labels: device, type
	FramesDropped  *prometheus.CounterVec // labels: device, reason
	SendErrors     *prometheus.CounterVec // labels: device
	BytesSent      *prometheus.CounterVec // labels: device
	BytesReceived  *prometheus.CounterVec // labels: device
	SessionState   *prometheus.GaugeVec   // labels: device；取值为 device.State
	MirrorDropped  prometheus.Counter     // 镜像队列满丢弃
}

// NewLinkMetrics 注册并返回链路指标
func NewLinkMetrics(reg prometheus.Registerer) *LinkMetrics {
	m := &LinkMetrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_frames_sent_total",
			Help: "Frames sent to devices by value type.",
		}, []string{"device", "type"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_frames_received_total",
			Help: "Valid frames received from devices by value type.",
		}, []string{"device", "type"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_frames_dropped_total",
			Help: "Inbound datagrams dropped by reason.",
		}, []string{"device", "reason"}),
		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_send_errors_total",
			Help: "Failed or rejected sends.",
		}, []string{"device"}),
		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_bytes_sent_total",
			Help: "Datagram bytes sent.",
		}, []string{"device"}),
		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbe_bytes_received_total",
			Help: "Datagram bytes received.",
		}, []string{"device"}),
		SessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lbe_session_state",
			Help: "Device session state (0 uninitialized, 1 connecting, 2 connected, 3 timed out, 4 disconnected).",
		}, []string{"device"}),
		MirrorDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lbe_mirror_dropped_total",
			Help: "Channel updates dropped because the mirror queue was full.",
		}),
	}
	reg.MustRegister(m.FramesSent, m.FramesReceived, m.FramesDropped, m.SendErrors,
		m.BytesSent, m.BytesReceived, m.SessionState, m.MirrorDropped)
	return m
}
