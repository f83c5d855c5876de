// internal/common/observability/metrics_test.go
package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricKey drops separators so names compare the same whether the exporter
// keeps otel's dots or translates them to underscores.
func metricKey(name string) string {
	return strings.NewReplacer(".", "", "_", "").Replace(name)
}

func TestMetricKey(t *testing.T) {
	assert.Equal(t, metricKey("http_server_requests_total"), metricKey("http.server.requests_total"))
	assert.True(t, strings.HasPrefix(metricKey("http.server.requests_total"), "httpserverrequests"))
	assert.False(t, strings.HasPrefix(metricKey("http.server.duration_milliseconds"), "httpserverrequests"))
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("test", reg)
	defer obs.Shutdown()

	r := chi.NewRouter()
	r.Use(obs.Middleware)
	r.Get("/answers/{responseId}/plants", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/answers/abc/plants", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if !strings.HasPrefix(metricKey(mf.GetName()), "httpserverrequests") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/answers/{responseId}/plants" {
				found = true
				assert.Equal(t, "404", labels["status"])
				assert.Equal(t, "GET", labels["method"])
			}
		}
	}
	assert.True(t, found, "request counter with route pattern not exported")
}

func TestRecordRequest_ZeroValueIsSafe(t *testing.T) {
	obs := &Observability{}
	assert.NotPanics(t, func() {
		obs.RecordRequest(t.Context(), http.MethodGet, "/", http.StatusOK, 0)
		obs.Shutdown()
	})
}
