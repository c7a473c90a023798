// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/mutual/log"
)

const namespace = "mutual_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the process wide provider to prometheus.
// Calling it more than once has no further effect.
func InitializePrometheusMetrics() {
	if _, ok := registry.(*promProvider); !ok {
		registry = &promProvider{}
	}
}

type promProvider struct {
	meters sync.Map // name -> meter
}

func (p *promProvider) load(name string, create func() (prometheus.Collector, any)) any {
	if m, ok := p.meters.Load(name); ok {
		return m
	}
	collector, meter := create()
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	actual, _ := p.meters.LoadOrStore(name, meter)
	return actual
}

func (p *promProvider) Counter(name string) CountMeter {
	return p.load(name, func() (prometheus.Collector, any) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, &promCounter{c}
	}).(CountMeter)
}

func (p *promProvider) CounterVec(name string, labels []string) CountVecMeter {
	return p.load(name, func() (prometheus.Collector, any) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCounterVec{c}
	}).(CountVecMeter)
}

func (p *promProvider) Gauge(name string) GaugeMeter {
	return p.load(name, func() (prometheus.Collector, any) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, &promGauge{g}
	}).(GaugeMeter)
}

func (p *promProvider) GaugeVec(name string, labels []string) GaugeVecMeter {
	return p.load(name, func() (prometheus.Collector, any) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, &promGaugeVec{g}
	}).(GaugeVecMeter)
}

func (p *promProvider) Histogram(name string, buckets []int64) HistogramMeter {
	return p.load(name, func() (prometheus.Collector, any) {
		floatBuckets := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			floatBuckets = append(floatBuckets, float64(b))
		}
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets,
		})
		return h, &promHistogram{h}
	}).(HistogramMeter)
}

func (p *promProvider) Handler() http.Handler {
	return promhttp.Handler()
}

type promCounter struct{ c prometheus.Counter }

func (m *promCounter) Add(i int64) { m.c.Add(float64(i)) }

type promCounterVec struct{ c *prometheus.CounterVec }

func (m *promCounterVec) AddWithLabel(i int64, labels map[string]string) {
	m.c.With(labels).Add(float64(i))
}

type promGauge struct{ g prometheus.Gauge }

func (m *promGauge) Add(i int64) { m.g.Add(float64(i)) }
func (m *promGauge) Set(i int64) { m.g.Set(float64(i)) }

type promGaugeVec struct{ g *prometheus.GaugeVec }

func (m *promGaugeVec) AddWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Add(float64(i))
}

func (m *promGaugeVec) SetWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Set(float64(i))
}

type promHistogram struct{ h prometheus.Histogram }

func (m *promHistogram) Observe(i int64) { m.h.Observe(float64(i)) }
