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

package sim

import (
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/contracts"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// cqiBytesPerBlock maps a CQI index (1..15) to the bytes one resource block
// carries under the corresponding modulation and coding scheme. Index 0 means no
// usable channel.
var cqiBytesPerBlock = [16]uint32{0, 2, 3, 5, 8, 12, 18, 24, 30, 36, 45, 54, 63, 72, 80, 93}

// environment is the synthetic radio stack backing a simulation run: node
// channel state, per-direction backlogs, and per-tick resource block pools. It
// implements the scheduler's read-side contracts directly and hands out
// per-direction allocator views.
type environment struct {
	cfg      *Config
	nodeCQI  map[types.NodeID]uint8
	flowNode map[types.ConnectionID]types.NodeID
	backlog  map[types.Direction]map[types.ConnectionID]uint64
	// remaining is the per-direction pool of unallocated resource blocks for the
	// current tick.
	remaining map[types.Direction]uint64
	// tickBlocks is the pool size at the start of every tick:
	// antennas * bands * blocksPerBand.
	tickBlocks uint64

	antennas []types.Antenna
	bands    []types.Band
}

func newEnvironment(cfg *Config) *environment {
	env := &environment{
		cfg:      cfg,
		nodeCQI:  make(map[types.NodeID]uint8, len(cfg.Nodes)),
		flowNode: make(map[types.ConnectionID]types.NodeID, len(cfg.Flows)),
		backlog: map[types.Direction]map[types.ConnectionID]uint64{
			types.Downlink: {},
			types.Uplink:   {},
		},
		remaining:  map[types.Direction]uint64{},
		tickBlocks: uint64(cfg.Antennas) * uint64(cfg.Bands) * uint64(cfg.BlocksPerBand),
	}
	for _, n := range cfg.Nodes {
		env.nodeCQI[types.NodeID(n.ID)] = n.CQI
	}
	for _, f := range cfg.Flows {
		env.flowNode[types.ConnectionID(f.Connection)] = types.NodeID(f.Node)
	}
	for i := 0; i < cfg.Antennas; i++ {
		env.antennas = append(env.antennas, types.Antenna(i))
	}
	for i := 0; i < cfg.Bands; i++ {
		env.bands = append(env.bands, types.Band(i))
	}
	env.resetTick()
	return env
}

// resetTick refills the per-direction resource block pools.
func (e *environment) resetTick() {
	e.remaining[types.Downlink] = e.tickBlocks
	e.remaining[types.Uplink] = e.tickBlocks
}

// --- contracts.NodeResolver ---

func (e *environment) NodeForConnection(cid types.ConnectionID) (types.NodeID, bool) {
	node, ok := e.flowNode[cid]
	return node, ok
}

func (e *environment) IsNodePresent(node types.NodeID) bool {
	_, ok := e.nodeCQI[node]
	return ok
}

// --- contracts.BacklogSource ---

func (e *environment) QueuedBytes(cid types.ConnectionID, dir types.Direction) uint64 {
	return e.backlog[dir][cid]
}

// --- contracts.LinkAdaptor ---

func (e *environment) TxParams(node types.NodeID, _ types.Direction, _ float64) contracts.TxParams {
	cqi := e.nodeCQI[node]
	if cqi == 0 {
		return contracts.TxParams{}
	}
	cqis := make([]uint8, len(e.bands))
	for i := range cqis {
		cqis[i] = cqi
	}
	return contracts.TxParams{Antennas: e.antennas, Bands: e.bands, CQIs: cqis}
}

func (e *environment) BytesOnBlocks(node types.NodeID, _ types.Band, blocks uint32, _ types.Direction, _ float64) uint32 {
	return blocks * cqiBytesPerBlock[e.nodeCQI[node]]
}

var (
	_ contracts.NodeResolver  = &environment{}
	_ contracts.BacklogSource = &environment{}
	_ contracts.LinkAdaptor   = &environment{}
)

// allocatorFor returns the resource allocator view of one direction's pool.
func (e *environment) allocatorFor(dir types.Direction) contracts.ResourceAllocator {
	return &directionAllocator{env: e, dir: dir}
}

// directionAllocator exposes one direction's resource block pool as a
// contracts.ResourceAllocator.
type directionAllocator struct {
	env *environment
	dir types.Direction
}

func (a *directionAllocator) AvailableBlocks(_ types.NodeID, _ types.Antenna, _ types.Band) uint32 {
	perPair := uint64(a.env.cfg.BlocksPerBand)
	return uint32(min(perPair, a.env.remaining[a.dir]))
}

func (a *directionAllocator) RequestGrant(cid types.ConnectionID, limitBytes uint32) types.GrantResult {
	env := a.env
	backlog := env.backlog[a.dir][cid]
	perBlock := uint64(cqiBytesPerBlock[env.nodeCQI[env.flowNode[cid]]])

	if env.remaining[a.dir] == 0 || perBlock == 0 {
		return types.GrantResult{Terminate: env.remaining[a.dir] == 0, Active: backlog > 0}
	}

	want := min(backlog, uint64(limitBytes))
	granted := min(want, env.remaining[a.dir]*perBlock)
	blocksUsed := (granted + perBlock - 1) / perBlock

	env.remaining[a.dir] -= blocksUsed
	env.backlog[a.dir][cid] = backlog - granted

	return types.GrantResult{
		GrantedBytes: uint32(granted),
		Terminate:    env.remaining[a.dir] == 0,
		Active:       backlog > granted,
		Eligible:     false,
	}
}

var _ contracts.ResourceAllocator = &directionAllocator{}
