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

package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/contracts"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/contracts/mocks"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// testWorld is a stateful stand-in for the radio stack: node mappings, backlogs,
// a flat-rate channel, and a grant primitive that serves each flow its full
// backlog once and deactivates it.
type testWorld struct {
	nodes     map[types.ConnectionID]types.NodeID
	absent    map[types.NodeID]bool
	backlog   map[types.ConnectionID]uint64
	blocks    uint32 // available blocks per (antenna, band)
	perBlock  uint32 // bytes one block carries
	qosCtx    map[types.ConnectionID]qos.Context
	allocator *mocks.MockResourceAllocator
}

func newTestWorld() *testWorld {
	w := &testWorld{
		nodes:    make(map[types.ConnectionID]types.NodeID),
		absent:   make(map[types.NodeID]bool),
		backlog:  make(map[types.ConnectionID]uint64),
		blocks:   10,
		perBlock: 10, // achievable rate: 10 bytes per resource block
		qosCtx:   make(map[types.ConnectionID]qos.Context),
	}
	w.allocator = &mocks.MockResourceAllocator{
		AvailableBlocksFunc: func(types.NodeID, types.Antenna, types.Band) uint32 {
			return w.blocks
		},
		RequestGrantFunc: func(cid types.ConnectionID, limitBytes uint32) types.GrantResult {
			granted := w.backlog[cid]
			if uint64(limitBytes) < granted {
				granted = uint64(limitBytes)
			}
			w.backlog[cid] -= granted
			return types.GrantResult{GrantedBytes: uint32(granted), Active: false, Eligible: false}
		},
	}
	return w
}

// addFlow registers a flow with a node mapping and backlog.
func (w *testWorld) addFlow(cid types.ConnectionID, backlog uint64) {
	w.nodes[cid] = types.NodeID(cid)
	w.backlog[cid] = backlog
}

func (w *testWorld) deps() Dependencies {
	return Dependencies{
		Nodes: &mocks.MockNodeResolver{
			NodeForConnectionFunc: func(cid types.ConnectionID) (types.NodeID, bool) {
				node, ok := w.nodes[cid]
				return node, ok
			},
			IsNodePresentFunc: func(node types.NodeID) bool {
				return !w.absent[node]
			},
		},
		Backlogs: &mocks.MockBacklogSource{
			QueuedBytesFunc: func(cid types.ConnectionID, _ types.Direction) uint64 {
				return w.backlog[cid]
			},
		},
		Link: &mocks.MockLinkAdaptor{
			TxParamsFunc: func(types.NodeID, types.Direction, float64) contracts.TxParams {
				return contracts.TxParams{
					Antennas: []types.Antenna{0},
					Bands:    []types.Band{0},
					CQIs:     []uint8{10},
				}
			},
			BytesOnBlocksFunc: func(_ types.NodeID, _ types.Band, blocks uint32, _ types.Direction, _ float64) uint32 {
				return blocks * w.perBlock
			},
		},
		Allocator: w.allocator,
		QoS: &mocks.MockQoSSource{
			ContextForConnectionFunc: func(cid types.ConnectionID) (qos.Context, bool) {
				ctx, ok := w.qosCtx[cid]
				return ctx, ok
			},
		},
	}
}

func newTestScheduler(t *testing.T, cfg *Config, w *testWorld, seed int64) *Scheduler {
	t.Helper()
	s, err := New(cfg, w.deps(), rand.New(rand.NewSource(seed)), logutil.NewTestLogger())
	require.NoError(t, err)
	for cid := range w.nodes {
		require.NoError(t, s.AddConnection(cid))
	}
	return s
}

func runTick(t *testing.T, s *Scheduler) {
	t.Helper()
	require.NoError(t, s.PrepareSchedule(context.Background()))
	require.NoError(t, s.CommitSchedule())
}

func TestNewValidation(t *testing.T) {
	w := newTestWorld()
	logger := logutil.NewTestLogger()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name    string
		cfg     *Config
		deps    Dependencies
		rng     *rand.Rand
		wantErr error
	}{
		{
			name: "nil QoS source aborts construction",
			cfg:  NewConfig(types.Downlink, 2.1),
			deps: func() Dependencies {
				d := w.deps()
				d.QoS = nil
				return d
			}(),
			rng:     rng,
			wantErr: ErrMissingDependency,
		},
		{
			name: "nil allocator aborts construction",
			cfg:  NewConfig(types.Downlink, 2.1),
			deps: func() Dependencies {
				d := w.deps()
				d.Allocator = nil
				return d
			}(),
			rng:     rng,
			wantErr: ErrMissingDependency,
		},
		{
			name:    "nil random source aborts construction",
			cfg:     NewConfig(types.Downlink, 2.1),
			deps:    w.deps(),
			rng:     nil,
			wantErr: ErrMissingRandomSource,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, tc.deps, tc.rng, logger)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("unknown weight policy aborts construction", func(t *testing.T) {
		cfg := NewConfig(types.Downlink, 2.1)
		cfg.WeightPolicyName = "nosuch"
		_, err := New(cfg, w.deps(), rng, logger)
		require.Error(t, err)
	})
}

func TestZeroBacklogFlowIsNeverScoredOrGranted(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 0)
	w.addFlow(2, 500)
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	runTick(t, s)

	assert.Equal(t, []types.ConnectionID{2}, w.allocator.GrantRequests)
	assert.Zero(t, s.GrantedBytes(1))
	assert.Equal(t, uint64(500), s.GrantedBytes(2))
	// An empty flow stays in the active set; it may have data next tick.
	assert.True(t, s.ActiveConnections().Has(1))
	assert.Equal(t, 1, s.LastTickStats().Skipped["zero_backlog"])
}

func TestGreedyOrderingServesHigherScoreFirst(t *testing.T) {
	// Flow A has backlog 1000 and neutral weight; flow B has backlog 100 and
	// weight 100 under the inverse policy (conversational voice). With rate 10
	// and alpha=beta=1: score_A = 1000*10*1 = 10000, score_B = 100*10*100 =
	// 100000, so B is granted first.
	w := newTestWorld()
	w.addFlow(1, 1000)
	w.addFlow(2, 100)
	w.qosCtx[2] = qos.ContextConversationalVoice

	cfg := NewConfig(types.Downlink, 2.1)
	cfg.WeightPolicyName = qos.InversePolicyName
	cfg.OverrideQFI = types.QFINone
	s := newTestScheduler(t, cfg, w, 1)

	runTick(t, s)

	require.Equal(t, []types.ConnectionID{2, 1}, w.allocator.GrantRequests)
	assert.Equal(t, uint64(100), s.GrantedBytes(2))
	assert.Equal(t, uint64(1000), s.GrantedBytes(1))
}

func TestBacklogDominatesAtEqualWeight(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 100)
	w.addFlow(2, 5000)
	w.addFlow(3, 900)
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	runTick(t, s)

	assert.Equal(t, []types.ConnectionID{2, 3, 1}, w.allocator.GrantRequests)
}

func TestStrictPriorityOverrideAlwaysServedFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for run := 0; run < 20; run++ {
		w := newTestWorld()
		// Ordinary flows with arbitrarily large backlogs.
		for cid := types.ConnectionID(1); cid <= 10; cid++ {
			w.addFlow(cid, uint64(1+rng.Intn(1_000_000_000)))
		}
		// One ultra-low-latency flow with a tiny backlog.
		w.addFlow(11, 1)
		w.qosCtx[11] = qos.ContextLowLatency // QFI 4

		s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, rng.Int63())
		runTick(t, s)

		require.NotEmpty(t, w.allocator.GrantRequests)
		assert.Equal(t, types.ConnectionID(11), w.allocator.GrantRequests[0],
			"override-class flow must be served before any other flow")
	}
}

func TestTerminateStopsTheWholeLoop(t *testing.T) {
	w := newTestWorld()
	for cid := types.ConnectionID(1); cid <= 5; cid++ {
		w.addFlow(cid, uint64(100*cid))
	}
	w.allocator.RequestGrantFunc = func(cid types.ConnectionID, _ uint32) types.GrantResult {
		return types.GrantResult{GrantedBytes: 42, Terminate: true, Active: true, Eligible: false}
	}
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	runTick(t, s)

	require.Len(t, w.allocator.GrantRequests, 1)
	first := w.allocator.GrantRequests[0]
	assert.Equal(t, uint64(42), s.GrantedBytes(first))
	for cid := types.ConnectionID(1); cid <= 5; cid++ {
		if cid != first {
			assert.Zero(t, s.GrantedBytes(cid), "flow %s must receive exactly 0 bytes", cid)
		}
	}
	assert.True(t, s.LastTickStats().Terminated)
}

func TestUnmappedNodeIsRemovedAndNeverScored(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 1000)
	w.addFlow(2, 1000)
	delete(w.nodes, 2) // no node mapping

	w.addFlow(3, 1000)
	w.absent[types.NodeID(3)] = true // node left the simulation

	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)
	require.NoError(t, s.AddConnection(2))

	runTick(t, s)

	assert.Equal(t, []types.ConnectionID{1}, w.allocator.GrantRequests)
	active := s.ActiveConnections()
	assert.False(t, active.Has(2))
	assert.False(t, active.Has(3))
	assert.Equal(t, 2, s.LastTickStats().Skipped["node_missing"])
}

func TestNoAvailableBlocksSkipsWithoutDividing(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 1000)
	w.blocks = 0

	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)
	runTick(t, s)

	assert.Empty(t, w.allocator.GrantRequests)
	assert.Equal(t, 1, s.LastTickStats().Skipped["no_blocks"])
	// Still active: channel may recover next tick.
	assert.True(t, s.ActiveConnections().Has(1))
}

func TestActiveSetOnlyShrinksWithinATick(t *testing.T) {
	rng := rand.New(rand.NewSource(123))

	w := newTestWorld()
	for cid := types.ConnectionID(1); cid <= 32; cid++ {
		w.addFlow(cid, uint64(rng.Intn(10_000))) // some flows start empty
	}
	w.allocator.RequestGrantFunc = func(cid types.ConnectionID, _ uint32) types.GrantResult {
		return types.GrantResult{
			GrantedBytes: uint32(rng.Intn(5000)),
			Terminate:    rng.Intn(10) == 0,
			Active:       rng.Intn(3) != 0,
			Eligible:     rng.Intn(2) == 0,
		}
	}
	s := newTestScheduler(t, NewConfig(types.Uplink, 3.5), w, 7)

	for tick := 0; tick < 10; tick++ {
		before := s.ActiveConnections()
		runTick(t, s)
		after := s.ActiveConnections()
		assert.True(t, after.IsSubsetOf(before),
			"tick %d: committed active set must be a subset of the pre-tick set", tick)
	}
}

func TestInactiveFlowLeavesActiveSetAfterCommit(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 100)
	w.addFlow(2, 100)
	w.allocator.RequestGrantFunc = func(cid types.ConnectionID, _ uint32) types.GrantResult {
		// Flow 1 drains completely, flow 2 still has data.
		return types.GrantResult{GrantedBytes: 100, Active: cid == 2, Eligible: false}
	}
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	runTick(t, s)

	active := s.ActiveConnections()
	assert.False(t, active.Has(1))
	assert.True(t, active.Has(2))
}

func TestGrantLedgerResetsEveryTick(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 800)
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	runTick(t, s)
	require.Equal(t, uint64(800), s.GrantedBytes(1))

	// Flow 1 was deactivated by the default grant behavior; re-add with no data.
	require.NoError(t, s.AddConnection(1))
	runTick(t, s)
	assert.Zero(t, s.GrantedBytes(1))
	assert.Empty(t, s.GrantLedger())
}

func TestTickLifecycleGuards(t *testing.T) {
	w := newTestWorld()
	w.addFlow(1, 100)
	s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 1)

	t.Run("commit before prepare", func(t *testing.T) {
		require.ErrorIs(t, s.CommitSchedule(), ErrTickNotPrepared)
	})

	t.Run("prepare twice without commit", func(t *testing.T) {
		require.NoError(t, s.PrepareSchedule(context.Background()))
		require.ErrorIs(t, s.PrepareSchedule(context.Background()), ErrTickInProgress)
	})

	t.Run("set mutations rejected mid-tick", func(t *testing.T) {
		require.ErrorIs(t, s.AddConnection(9), ErrTickInProgress)
		require.ErrorIs(t, s.RemoveConnection(1), ErrTickInProgress)
	})

	t.Run("commit finishes the tick", func(t *testing.T) {
		require.NoError(t, s.CommitSchedule())
		require.ErrorIs(t, s.CommitSchedule(), ErrTickNotPrepared)
		require.NoError(t, s.AddConnection(9))
	})
}

func TestIdenticalSeedsReproduceServiceOrder(t *testing.T) {
	build := func() (*testWorld, *Scheduler) {
		w := newTestWorld()
		for cid := types.ConnectionID(1); cid <= 16; cid++ {
			w.addFlow(cid, 1000) // identical scores force jitter tie-breaking
		}
		s := newTestScheduler(t, NewConfig(types.Downlink, 2.1), w, 4242)
		return w, s
	}

	wA, sA := build()
	wB, sB := build()
	runTick(t, sA)
	runTick(t, sB)

	if diff := cmp.Diff(wA.allocator.GrantRequests, wB.allocator.GrantRequests); diff != "" {
		t.Errorf("same seed must reproduce the same service order (-first +second):\n%s", diff)
	}
}
