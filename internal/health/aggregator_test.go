package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/lbe-link/internal/device"
)

// mockChecker 模拟检查器
type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(ctx context.Context) CheckResult {
	return CheckResult{Status: m.status, Message: "mock", Latency: time.Millisecond}
}

type fakeLink struct {
	name  string
	state device.State
}

func (f fakeLink) Name() string        { return f.name }
func (f fakeLink) State() device.State { return f.state }

func links(l ...fakeLink) func() []LinkState {
	return func() []LinkState {
		out := make([]LinkState, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
}

func TestAggregator(t *testing.T) {
	tests := []struct {
		name  string
		want  Status
		ready bool
		cs    []Checker
	}{
		{"全部健康", StatusHealthy, true, []Checker{&mockChecker{"devices", StatusHealthy}, &mockChecker{"redis", StatusHealthy}}},
		{"部分降级", StatusDegraded, true, []Checker{&mockChecker{"devices", StatusDegraded}, &mockChecker{"redis", StatusHealthy}}},
		{"部分不健康", StatusUnhealthy, false, []Checker{&mockChecker{"devices", StatusUnhealthy}, &mockChecker{"redis", StatusDegraded}}},
		{"无检查器", StatusHealthy, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(tt.cs...)
			assert.Equal(t, tt.want, agg.OverallStatus(context.Background()))
			assert.Equal(t, tt.ready, agg.Ready(context.Background()))
		})
	}

	t.Run("动态添加检查器", func(t *testing.T) {
		agg := NewAggregator(&mockChecker{"initial", StatusHealthy})
		agg.AddChecker(&mockChecker{"added", StatusHealthy})
		assert.Len(t, agg.CheckAll(context.Background()), 2)
		assert.True(t, agg.Alive())
	})
}

func TestDeviceChecker(t *testing.T) {
	tests := []struct {
		name  string
		links []fakeLink
		want  Status
	}{
		{"无设备", nil, StatusHealthy},
		{"全部在线", []fakeLink{{"vest", device.StateConnected}, {"seat", device.StateConnected}}, StatusHealthy},
		{"部分超时", []fakeLink{{"vest", device.StateConnected}, {"seat", device.StateTimedOut}}, StatusDegraded},
		{"仍在连接", []fakeLink{{"vest", device.StateConnecting}}, StatusDegraded},
		{"全部未打开", []fakeLink{{"vest", device.StateUninitialized}, {"seat", device.StateDisconnected}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDeviceChecker(links(tt.links...)).Check(context.Background())
			assert.Equal(t, tt.want, r.Status)
		})
	}

	r := NewDeviceChecker(links(fakeLink{"vest", device.StateTimedOut})).Check(context.Background())
	assert.Equal(t, map[string]any{"vest": "timed_out"}, r.Details["states"])
	assert.Equal(t, "0/1 devices connected", r.Message)
}

func TestReadiness(t *testing.T) {
	r := New()
	assert.False(t, r.Ready())
	r.SetLinkReady(true)
	assert.False(t, r.Ready())
	r.SetHTTPReady(true)
	assert.True(t, r.Ready())
}

func TestHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(agg *Aggregator, path string) *httptest.ResponseRecorder {
		r := gin.New()
		RegisterHTTPRoutes(r, agg)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	degraded := NewAggregator(NewDeviceChecker(links(fakeLink{"vest", device.StateTimedOut})))
	rec := serve(degraded, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Checks, "devices")

	assert.Equal(t, http.StatusOK, serve(degraded, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, serve(degraded, "/health/live").Code)

	down := NewAggregator(&mockChecker{"devices", StatusUnhealthy})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/health/ready").Code)
}
