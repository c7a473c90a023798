// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import "github.com/vechain/mutual/metrics"

var (
	metricOperations  = metrics.LazyLoadCounterVec("engine_operations_count", []string{"op", "result"})
	metricSlashed     = metrics.LazyLoadCounter("engine_slashed_amount_count")
	metricPaid        = metrics.LazyLoadCounter("engine_paid_amount_count")
	metricRoundPaid   = metrics.LazyLoadHistogram("engine_round_paid_amount", metrics.BucketAmounts)
	metricQueueLength = metrics.LazyLoadGaugeVec("engine_queue_length", []string{"pool"})
)
