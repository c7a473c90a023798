// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noopProvider struct{}

func (noopProvider) Counter(string) CountMeter                 { return noop }
func (noopProvider) CounterVec(string, []string) CountVecMeter { return noop }
func (noopProvider) Gauge(string) GaugeMeter                   { return noop }
func (noopProvider) GaugeVec(string, []string) GaugeVecMeter   { return noop }
func (noopProvider) Histogram(string, []int64) HistogramMeter  { return noop }
func (noopProvider) Handler() http.Handler                     { return http.NotFoundHandler() }

var noop = &noopMeter{}

type noopMeter struct{}

func (*noopMeter) Add(int64)                             {}
func (*noopMeter) Set(int64)                             {}
func (*noopMeter) Observe(int64)                         {}
func (*noopMeter) AddWithLabel(int64, map[string]string) {}
func (*noopMeter) SetWithLabel(int64, map[string]string) {}
