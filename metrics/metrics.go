// Copyright 2026 The EmbedDB Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics wraps the prometheus counters/histograms the engine
// exposes: ambient instrumentation carried regardless of spec.md's
// Non-goals around a metrics *protocol* (SPEC_FULL.md §2).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every collector the engine registers. A nil
// *Metrics is valid and every method on it is a no-op, so callers that
// don't want metrics can simply not construct one.
type Metrics struct {
	Commits        prometheus.Counter
	Rollbacks      prometheus.Counter
	BytesAllocated prometheus.Counter
	RowsScanned    prometheus.Counter
	AdvanceReadLag prometheus.Histogram
}

// New constructs and registers a Metrics set against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embeddb",
			Name:      "commits_total",
			Help:      "Number of write transactions committed.",
		}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embeddb",
			Name:      "rollbacks_total",
			Help:      "Number of write transactions rolled back.",
		}),
		BytesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embeddb",
			Name:      "bytes_allocated_total",
			Help:      "Total bytes handed out by the allocator.",
		}),
		RowsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "embeddb",
			Name:      "rows_scanned_total",
			Help:      "Total rows visited by query execution.",
		}),
		AdvanceReadLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "embeddb",
			Name:      "advance_read_lag_versions",
			Help:      "Versions behind latest a reader was before advance_read.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.Commits, m.Rollbacks, m.BytesAllocated, m.RowsScanned, m.AdvanceReadLag} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.Commits.Inc()
}

func (m *Metrics) ObserveRollback() {
	if m == nil {
		return
	}
	m.Rollbacks.Inc()
}

func (m *Metrics) ObserveAlloc(bytes int) {
	if m == nil {
		return
	}
	m.BytesAllocated.Add(float64(bytes))
}

func (m *Metrics) ObserveRowsScanned(n int) {
	if m == nil {
		return
	}
	m.RowsScanned.Add(float64(n))
}

func (m *Metrics) ObserveAdvanceReadLag(versionsBehind int) {
	if m == nil {
		return
	}
	m.AdvanceReadLag.Observe(float64(versionsBehind))
}
