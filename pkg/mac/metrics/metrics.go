/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics defines the Prometheus metrics published by the MAC scheduler.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

const (
	// MacSchedulerSubsystem is the metrics subsystem of the scheduler.
	MacSchedulerSubsystem = "mac_scheduler"

	// Skip reasons recorded by RecordFlowSkipped.
	ReasonNodeMissing   = "node_missing"
	ReasonZeroBacklog   = "zero_backlog"
	ReasonNoChannelInfo = "no_channel_info"
	ReasonNoBlocks      = "no_blocks"
)

var (
	directionLabels = []string{"direction"}

	tickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: MacSchedulerSubsystem,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one scheduling tick (prepare and grant), per direction.",
			// Ticks are sub-millisecond by construction; buckets from 1us to 100ms.
			Buckets: []float64{
				1e-6, 2.5e-6, 5e-6, 1e-5, 2.5e-5, 5e-5, 1e-4, 2.5e-4, 5e-4,
				1e-3, 2.5e-3, 5e-3, 1e-2, 2.5e-2, 5e-2, 1e-1,
			},
		},
		directionLabels,
	)

	grantedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: MacSchedulerSubsystem,
			Name:      "granted_bytes_total",
			Help:      "Total bytes granted to flows, per direction.",
		},
		directionLabels,
	)

	scoredCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: MacSchedulerSubsystem,
			Name:      "scored_candidates_total",
			Help:      "Total flows that received a score and entered the allocation ordering, per direction.",
		},
		directionLabels,
	)

	skippedFlows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: MacSchedulerSubsystem,
			Name:      "skipped_flows_total",
			Help:      "Total flows skipped during scoring, per direction and skip reason.",
		},
		[]string{"direction", "reason"},
	)

	activeFlows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: MacSchedulerSubsystem,
			Name:      "active_flows",
			Help:      "Flows in the authoritative active set after the last commit, per direction.",
		},
		directionLabels,
	)
)

var registerMetrics sync.Once

// Register registers all scheduler metrics with the given registerer, once.
func Register(r prometheus.Registerer) {
	registerMetrics.Do(func() {
		r.MustRegister(tickDuration)
		r.MustRegister(grantedBytes)
		r.MustRegister(scoredCandidates)
		r.MustRegister(skippedFlows)
		r.MustRegister(activeFlows)
	})
}

// RecordTickDuration records the duration of one prepare+grant pass.
func RecordTickDuration(dir types.Direction, d time.Duration) {
	tickDuration.WithLabelValues(dir.String()).Observe(d.Seconds())
}

// RecordGrantedBytes adds n to the granted-bytes counter.
func RecordGrantedBytes(dir types.Direction, n uint64) {
	grantedBytes.WithLabelValues(dir.String()).Add(float64(n))
}

// RecordScoredCandidate counts one flow pushed into the allocation ordering.
func RecordScoredCandidate(dir types.Direction) {
	scoredCandidates.WithLabelValues(dir.String()).Inc()
}

// RecordFlowSkipped counts one flow skipped during scoring for the given reason.
func RecordFlowSkipped(dir types.Direction, reason string) {
	skippedFlows.WithLabelValues(dir.String(), reason).Inc()
}

// SetActiveFlows publishes the size of the authoritative active set.
func SetActiveFlows(dir types.Direction, n int) {
	activeFlows.WithLabelValues(dir.String()).Set(float64(n))
}
