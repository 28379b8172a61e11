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

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

func TestRecordHelpers(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)

	RecordGrantedBytes(types.Downlink, 1500)
	RecordGrantedBytes(types.Downlink, 500)
	RecordScoredCandidate(types.Uplink)
	RecordFlowSkipped(types.Downlink, ReasonZeroBacklog)
	SetActiveFlows(types.Uplink, 3)

	wantGranted := `
		# HELP mac_scheduler_granted_bytes_total Total bytes granted to flows, per direction.
		# TYPE mac_scheduler_granted_bytes_total counter
		mac_scheduler_granted_bytes_total{direction="DL"} 2000
	`
	require.NoError(t, testutil.GatherAndCompare(registry,
		strings.NewReader(wantGranted), "mac_scheduler_granted_bytes_total"))

	wantSkipped := `
		# HELP mac_scheduler_skipped_flows_total Total flows skipped during scoring, per direction and skip reason.
		# TYPE mac_scheduler_skipped_flows_total counter
		mac_scheduler_skipped_flows_total{direction="DL",reason="zero_backlog"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(registry,
		strings.NewReader(wantSkipped), "mac_scheduler_skipped_flows_total"))

	assert.Equal(t, float64(3), testutil.ToFloat64(activeFlows.WithLabelValues("UL")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	// Register uses sync.Once, so a second call (even with a registry that
	// already holds the collectors) must not panic.
	Register(prometheus.NewRegistry())
	Register(prometheus.NewRegistry())
}
