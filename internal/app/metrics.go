package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/lbe-link/internal/metrics"
)

// NewMetrics 初始化注册表与链路指标
func NewMetrics() (*prometheus.Registry, *metrics.LinkMetrics) {
	reg := metrics.NewRegistry()
	linkm := metrics.NewLinkMetrics(reg)
	return reg, linkm
}
