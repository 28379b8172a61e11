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

// Package scheduler implements a Lyapunov drift-plus-penalty MAC scheduler: a
// per-tick greedy allocator that scores every active flow by queue backlog,
// achievable rate, and QoS weight, then grants radio resources highest score
// first.
//
// The scheduler is stateless across ticks: it keeps no throughput history, only
// the authoritative active flow set. One instance schedules one direction on one
// carrier; instances share the QoS context registry by reference and never write
// to it.
package scheduler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/go-logr/logr"

	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/contracts"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/metrics"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

const loggerName = "LyapunovScheduler"

// tickPhase tracks the scheduler's position in the tick lifecycle. A tick runs
// Idle -> Preparing -> Granting synchronously inside PrepareSchedule; the machine
// then holds in Granting until CommitSchedule publishes the active set and returns
// it to Idle.
type tickPhase int

const (
	phaseIdle tickPhase = iota
	phasePreparing
	phaseGranting
)

// Dependencies bundles the external collaborators of one scheduler instance.
// Every field is required.
type Dependencies struct {
	Nodes     contracts.NodeResolver
	Backlogs  contracts.BacklogSource
	Link      contracts.LinkAdaptor
	Allocator contracts.ResourceAllocator
	QoS       contracts.QoSSource
}

func (d Dependencies) validate() error {
	switch {
	case d.Nodes == nil:
		return fmt.Errorf("%w: node resolver", ErrMissingDependency)
	case d.Backlogs == nil:
		return fmt.Errorf("%w: backlog source", ErrMissingDependency)
	case d.Link == nil:
		return fmt.Errorf("%w: link adaptor", ErrMissingDependency)
	case d.Allocator == nil:
		return fmt.Errorf("%w: resource allocator", ErrMissingDependency)
	case d.QoS == nil:
		return fmt.Errorf("%w: QoS context source", ErrMissingDependency)
	}
	return nil
}

// TickStats is a snapshot of what happened during the last prepared tick.
type TickStats struct {
	// Scored is the number of flows pushed into the allocation ordering.
	Scored int
	// Skipped counts flows skipped during scoring, by reason.
	Skipped map[string]int
	// Drained is the number of candidates popped by the allocation loop.
	Drained int
	// GrantedBytes is the total number of bytes granted this tick.
	GrantedBytes uint64
	// Terminated reports whether the allocation loop stopped on global resource
	// exhaustion, leaving candidates unserved.
	Terminated bool
}

// Scheduler is a per-carrier, per-direction Lyapunov scheduler.
//
// All methods must be called from a single goroutine: a tick is a synchronous
// run-to-completion sequence with no internal suspension points. The only shared
// collaborator is the QoS source, which the scheduler exclusively reads.
type Scheduler struct {
	cfg    Config
	policy qos.WeightPolicy
	deps   Dependencies
	rng    *rand.Rand
	logger logr.Logger

	phase tickPhase
	// active is the authoritative active flow set, owned across ticks.
	active types.ConnectionSet
	// working is the per-tick working copy of the active set. Flows that become
	// ineligible during a tick are removed from both sets; CommitSchedule then
	// publishes working as the new authoritative set.
	working types.ConnectionSet
	// granted is the grant ledger: bytes granted per flow this tick. Reset at the
	// start of every tick, never carried across ticks.
	granted map[types.ConnectionID]uint64

	stats TickStats
}

// New creates a scheduler instance. The QoS source and every other collaborator
// are mandatory; rng must be a per-run seeded generator so that tie-breaking is
// reproducible across replays.
func New(cfg *Config, deps Dependencies, rng *rand.Rand, logger logr.Logger) (*Scheduler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrMissingRandomSource
	}

	logger = logger.WithName(loggerName).WithValues(
		"direction", cfg.Direction.String(), "carrierFrequency", cfg.CarrierFrequency)
	resolved := cfg.withDefaults(logger)

	policy, err := qos.PolicyByName(resolved.WeightPolicyName)
	if err != nil {
		return nil, err
	}

	logger.V(logutil.DEFAULT).Info("Creating scheduler",
		"alpha", resolved.Alpha, "beta", resolved.Beta, "scoreEpsilon", resolved.ScoreEpsilon,
		"weightPolicy", policy.Name(), "overrideQFI", resolved.OverrideQFI, "overrideBonus", resolved.OverrideBonus)

	return &Scheduler{
		cfg:     resolved,
		policy:  policy,
		deps:    deps,
		rng:     rng,
		logger:  logger,
		phase:   phaseIdle,
		active:  make(types.ConnectionSet),
		granted: make(map[types.ConnectionID]uint64),
	}, nil
}

// AddConnection inserts a flow into the authoritative active set. The connection
// management layer calls this between ticks, never during one.
func (s *Scheduler) AddConnection(cid types.ConnectionID) error {
	if s.phase != phaseIdle {
		return ErrTickInProgress
	}
	s.active.Add(cid)
	return nil
}

// RemoveConnection removes a terminated flow from the authoritative active set.
func (s *Scheduler) RemoveConnection(cid types.ConnectionID) error {
	if s.phase != phaseIdle {
		return ErrTickInProgress
	}
	s.active.Remove(cid)
	return nil
}

// ActiveConnections returns a copy of the authoritative active set.
func (s *Scheduler) ActiveConnections() types.ConnectionSet {
	return s.active.Clone()
}

// GrantedBytes returns the bytes granted to cid during the last prepared tick.
// Flows that received no grant report zero.
func (s *Scheduler) GrantedBytes(cid types.ConnectionID) uint64 {
	return s.granted[cid]
}

// GrantLedger returns a copy of the full grant ledger of the last prepared tick.
func (s *Scheduler) GrantLedger() map[types.ConnectionID]uint64 {
	ledger := make(map[types.ConnectionID]uint64, len(s.granted))
	for cid, n := range s.granted {
		ledger[cid] = n
	}
	return ledger
}

// LastTickStats returns the stats snapshot of the last prepared tick.
func (s *Scheduler) LastTickStats() TickStats {
	return s.stats
}

// PrepareSchedule runs one scheduling tick: it scores every flow in the active
// set, then greedily grants resources in descending score order. It must be
// followed by exactly one CommitSchedule call.
func (s *Scheduler) PrepareSchedule(ctx context.Context) error {
	if s.phase != phaseIdle {
		return ErrTickInProgress
	}

	logger := s.logger
	if ctxLogger, err := logr.FromContext(ctx); err == nil {
		logger = ctxLogger.WithName(loggerName)
	}

	start := time.Now()
	s.phase = phasePreparing
	s.granted = make(map[types.ConnectionID]uint64)
	s.working = s.active.Clone()
	s.stats = TickStats{Skipped: make(map[string]int)}

	heap := s.scoreFlows(logger)

	s.phase = phaseGranting
	s.allocate(logger, heap)

	metrics.RecordTickDuration(s.cfg.Direction, time.Since(start))
	logger.V(logutil.VERBOSE).Info("Prepared schedule",
		"scored", s.stats.Scored, "drained", s.stats.Drained,
		"grantedBytes", s.stats.GrantedBytes, "terminated", s.stats.Terminated)
	return nil
}

// CommitSchedule publishes the working set as the new authoritative active set,
// finishing the tick. The committed set is always a subset of the set the tick
// started with: the scheduler never adds flows, only the connection management
// layer does, between ticks.
func (s *Scheduler) CommitSchedule() error {
	if s.phase != phaseGranting {
		return ErrTickNotPrepared
	}
	s.active = s.working
	s.working = nil
	s.phase = phaseIdle
	metrics.SetActiveFlows(s.cfg.Direction, s.active.Len())
	return nil
}

// scoreFlows runs the single scoring pass over the working set and returns the
// max-ordered candidate heap. Flows are visited in ascending connection id order
// so that the sequence of random draws, and with it the whole run, is
// reproducible.
func (s *Scheduler) scoreFlows(logger logr.Logger) *candidateHeap {
	loggerTrace := logger.V(logutil.TRACE)
	heap := newCandidateHeap(s.working.Len())

	cids := make([]types.ConnectionID, 0, s.working.Len())
	for cid := range s.working {
		cids = append(cids, cid)
	}
	slices.Sort(cids)

	for _, cid := range cids {
		node, ok := s.deps.Nodes.NodeForConnection(cid)
		if !ok || !s.deps.Nodes.IsNodePresent(node) {
			// No valid node mapping: the flow can never be served again.
			// Drop it from both sets permanently.
			s.active.Remove(cid)
			s.working.Remove(cid)
			s.skip(cid, metrics.ReasonNodeMissing, loggerTrace)
			continue
		}

		backlog := s.deps.Backlogs.QueuedBytes(cid, s.cfg.Direction)
		if backlog == 0 {
			s.skip(cid, metrics.ReasonZeroBacklog, loggerTrace)
			continue
		}

		params := s.deps.Link.TxParams(node, s.cfg.Direction, s.cfg.CarrierFrequency)
		if !params.Usable() {
			s.skip(cid, metrics.ReasonNoChannelInfo, loggerTrace)
			continue
		}

		var availableBlocks, availableBytes uint64
		for _, antenna := range params.Antennas {
			for _, band := range params.Bands {
				blocks := s.deps.Allocator.AvailableBlocks(node, antenna, band)
				availableBlocks += uint64(blocks)
				availableBytes += uint64(s.deps.Link.BytesOnBlocks(node, band, blocks, s.cfg.Direction, s.cfg.CarrierFrequency))
			}
		}
		if availableBlocks == 0 {
			// Rate would be undefined; checked here, never divided blindly.
			s.skip(cid, metrics.ReasonNoBlocks, loggerTrace)
			continue
		}
		achievableRate := float64(availableBytes) / float64(availableBlocks)

		qosCtx, hasCtx := s.deps.QoS.ContextForConnection(cid)
		weight := qos.NeutralWeight
		if hasCtx {
			weight = s.policy.Weight(qosCtx)
		}

		score := math.Pow(float64(backlog), s.cfg.Alpha) * achievableRate * math.Pow(weight, s.cfg.Beta)

		if hasCtx && s.cfg.OverrideQFI != types.QFINone && qosCtx.QFI == s.cfg.OverrideQFI {
			score *= s.cfg.OverrideBonus
		}

		score += s.jitter()

		loggerTrace.Info("Scored flow",
			"cid", cid, "node", node, "backlog", backlog, "rate", achievableRate,
			"weight", weight, "score", score)

		heap.Push(scoredCandidate{cid: cid, score: score})
		s.stats.Scored++
		metrics.RecordScoredCandidate(s.cfg.Direction)
	}

	return heap
}

// allocate drains the candidate heap highest score first, requesting an unbounded
// grant for each candidate, until the heap is empty or the allocator reports
// global exhaustion. It mutates only the working and authoritative sets, never the
// heap being drained beyond popping.
func (s *Scheduler) allocate(logger logr.Logger, heap *candidateHeap) {
	loggerTrace := logger.V(logutil.TRACE)

	for heap.Len() > 0 {
		candidate := heap.Pop()
		s.stats.Drained++

		result := s.deps.Allocator.RequestGrant(candidate.cid, types.NoByteLimit)
		s.granted[candidate.cid] += uint64(result.GrantedBytes)
		s.stats.GrantedBytes += uint64(result.GrantedBytes)
		metrics.RecordGrantedBytes(s.cfg.Direction, uint64(result.GrantedBytes))

		loggerTrace.Info("Requested grant",
			"cid", candidate.cid, "score", candidate.score, "granted", result.GrantedBytes,
			"terminate", result.Terminate, "active", result.Active, "eligible", result.Eligible)

		if result.Terminate {
			// No resources of any kind remain; every still-queued candidate gets
			// zero bytes this tick.
			s.stats.Terminated = true
			return
		}
		if !result.Active {
			s.working.Remove(candidate.cid)
			s.active.Remove(candidate.cid)
		}
		// A still-active but currently ineligible flow simply is not served again
		// this tick; each candidate is popped at most once.
	}
}

func (s *Scheduler) skip(cid types.ConnectionID, reason string, loggerTrace logr.Logger) {
	s.stats.Skipped[reason]++
	metrics.RecordFlowSkipped(s.cfg.Direction, reason)
	loggerTrace.Info("Skipped flow", "cid", cid, "reason", reason)
}

// jitter draws a uniform perturbation from [-ScoreEpsilon, +ScoreEpsilon).
func (s *Scheduler) jitter() float64 {
	if s.cfg.ScoreEpsilon == 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.cfg.ScoreEpsilon
}
