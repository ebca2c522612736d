package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkMetrics_Exposed(t *testing.T) {
	reg := NewRegistry()
	m := NewLinkMetrics(reg)

	m.FramesDropped.WithLabelValues("vest", "bad_checksum").Inc()
	m.SessionState.WithLabelValues("vest").Set(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesDropped.WithLabelValues("vest", "bad_checksum")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `lbe_frames_dropped_total{device="vest",reason="bad_checksum"} 1`))
	assert.True(t, strings.Contains(body, `lbe_session_state{device="vest"} 2`))
}
