package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	app_service "crypto-bubble-map-explorer/internal/application/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ app_service.ViewObserver = (*Collector)(nil)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_RecordsActivity(t *testing.T) {
	c := NewCollector("test")

	c.ViewOpened("v1")
	c.ViewOpened("v2")
	c.ViewClosed("v2")
	c.FrameRendered("v1")
	c.FrameRendered("v1")
	c.NodeAdded("v1", true)
	c.NodeAdded("v1", false)
	c.NodeRemoved("v1")
	c.NodeCount("v1", 3)
	c.AddDropped("v1")
	c.ResolveFailed("v1")
	c.ResolveDuration(20 * time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, "test_views_open 1")
	assert.Contains(t, body, `test_render_frames_total{view="v1"} 2`)
	assert.Contains(t, body, "test_nodes_added_total 1")
	assert.Contains(t, body, "test_nodes_merged_total 1")
	assert.Contains(t, body, "test_nodes_removed_total 1")
	assert.Contains(t, body, `test_nodes_count{view="v1"} 3`)
	assert.Contains(t, body, "test_nodes_adds_dropped_total 1")
	assert.Contains(t, body, "test_resolver_errors_total 1")
	assert.Contains(t, body, "test_resolver_duration_seconds_count 1")
}

func TestCollector_ClosedViewSeriesRemoved(t *testing.T) {
	c := NewCollector("")

	c.ViewOpened("gone")
	c.NodeCount("gone", 2)
	c.ViewClosed("gone")

	body := scrape(t, c)
	assert.NotContains(t, body, `view="gone"`)
	assert.Contains(t, body, "bubble_map_explorer_views_open 0")
}
