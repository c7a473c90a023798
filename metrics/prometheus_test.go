// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestNoopProvider(t *testing.T) {
	registry = noopProvider{}

	for _, m := range []any{
		Counter("noop_counter"),
		CounterVec("noop_counter_vec", nil),
		Gauge("noop_gauge"),
		GaugeVec("noop_gauge_vec", nil),
		Histogram("noop_hist", nil),
	} {
		require.IsType(t, &noopMeter{}, m)
	}

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromMetrics(t *testing.T) {
	registry = noopProvider{}
	lazy := LazyLoadCounter("lazy_counter")

	InitializePrometheusMetrics()
	require.IsType(t, &promCounter{}, lazy())

	Counter("claims_submitted").Add(2)
	Counter("claims_submitted").Add(1)
	CounterVec("votes", []string{"decision"}).AddWithLabel(1, map[string]string{"decision": "approve"})
	CounterVec("votes", []string{"decision"}).AddWithLabel(4, map[string]string{"decision": "reject"})
	Gauge("queue_length").Set(7)
	Gauge("queue_length").Add(-2)
	GaugeVec("registry_size", []string{"pool"}).SetWithLabel(3, map[string]string{"pool": "p1"})
	Histogram("payout", BucketAmounts).Observe(500)

	m := gather(t)
	assert.Equal(t, float64(3), m["mutual_metrics_claims_submitted"].Metric[0].GetCounter().GetValue())
	assert.Len(t, m["mutual_metrics_votes"].Metric, 2)
	assert.Equal(t, float64(5), m["mutual_metrics_queue_length"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(3), m["mutual_metrics_registry_size"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(500), m["mutual_metrics_payout"].Metric[0].GetHistogram().GetSampleSum())

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, families, "mutual_metrics_claims_submitted")
}
