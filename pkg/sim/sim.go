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

// Package sim is the discrete-tick driver that stands in for the surrounding
// base-station simulation: it generates traffic, refreshes per-tick radio
// resources, and invokes the schedulers once per tick.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/scheduler"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

const loggerName = "Simulation"

// directions is the fixed order in which the per-direction schedulers run within
// a tick.
var directions = []types.Direction{types.Downlink, types.Uplink}

// Summary aggregates the outcome of a simulation run.
type Summary struct {
	RunID           string
	Ticks           int
	GrantedBytes    map[types.Direction]uint64
	TerminatedTicks int
	ActiveFlows     int
	Elapsed         time.Duration
}

// Simulation owns the synthetic radio environment, the shared QoS registry, and
// one scheduler per direction.
type Simulation struct {
	cfg      *Config
	logger   logr.Logger
	clock    clock.Clock
	rng      *rand.Rand
	runID    string
	registry *qos.Registry
	env      *environment

	schedulers map[types.Direction]*scheduler.Scheduler
}

// New builds a simulation from a validated scenario config. The clock is
// injected so tests can run without wall-time pacing.
func New(cfg *Config, logger logr.Logger, clk clock.Clock) (*Simulation, error) {
	runID := uuid.NewString()
	logger = logger.WithName(loggerName).WithValues("runID", runID)

	// The registry is shared by reference between both schedulers; the
	// simulation owns its lifecycle.
	registry := qos.NewRegistry(logger)
	for _, ctx := range []qos.Context{
		qos.ContextConversationalVoice,
		qos.ContextSignaling,
		qos.ContextLowLatency,
		qos.ContextBestEffort,
	} {
		if err := registry.Register(ctx); err != nil {
			return nil, err
		}
	}
	for _, f := range cfg.Flows {
		if f.QFI == uint8(types.QFINone) {
			continue
		}
		if err := registry.BindConnection(types.ConnectionID(f.Connection), types.QFI(f.QFI)); err != nil {
			return nil, fmt.Errorf("flow %d: %w", f.Connection, err)
		}
	}

	env := newEnvironment(cfg)

	s := &Simulation{
		cfg:        cfg,
		logger:     logger,
		clock:      clk,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		runID:      runID,
		registry:   registry,
		env:        env,
		schedulers: make(map[types.Direction]*scheduler.Scheduler, len(directions)),
	}

	for _, dir := range directions {
		deps := scheduler.Dependencies{
			Nodes:     env,
			Backlogs:  env,
			Link:      env,
			Allocator: env.allocatorFor(dir),
			QoS:       registry,
		}
		// Each scheduler gets its own generator so the two directions draw
		// independent but reproducible jitter sequences.
		rng := rand.New(rand.NewSource(cfg.Seed + int64(dir) + 1))
		sched, err := scheduler.New(cfg.schedulerConfig(dir), deps, rng, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s scheduler: %w", dir, err)
		}
		s.schedulers[dir] = sched
	}

	return s, nil
}

// RunID returns the unique identifier of this run.
func (s *Simulation) RunID() string {
	return s.runID
}

// Registry exposes the shared QoS registry, for inspection by tests.
func (s *Simulation) Registry() *qos.Registry {
	return s.registry
}

// Run executes the configured number of ticks and returns the aggregated
// summary. It stops early if ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) (*Summary, error) {
	start := s.clock.Now()
	summary := &Summary{
		RunID:        s.runID,
		GrantedBytes: map[types.Direction]uint64{},
	}

	s.logger.V(logutil.DEFAULT).Info("Starting simulation",
		"ticks", s.cfg.Ticks, "seed", s.cfg.Seed,
		"nodes", len(s.cfg.Nodes), "flows", len(s.cfg.Flows))

	for tick := 0; tick < s.cfg.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		s.generateArrivals()
		s.env.resetTick()

		for _, dir := range directions {
			sched := s.schedulers[dir]
			if err := sched.PrepareSchedule(ctx); err != nil {
				return summary, fmt.Errorf("tick %d (%s): %w", tick, dir, err)
			}
			stats := sched.LastTickStats()
			summary.GrantedBytes[dir] += stats.GrantedBytes
			if stats.Terminated {
				summary.TerminatedTicks++
			}
			if err := sched.CommitSchedule(); err != nil {
				return summary, fmt.Errorf("tick %d (%s): %w", tick, dir, err)
			}
		}
		summary.Ticks++

		if s.cfg.TickInterval > 0 {
			s.clock.Sleep(s.cfg.TickInterval)
		}
	}

	for _, dir := range directions {
		summary.ActiveFlows += s.schedulers[dir].ActiveConnections().Len()
	}
	summary.Elapsed = s.clock.Since(start)

	s.logger.V(logutil.DEFAULT).Info("Simulation finished",
		"ticks", summary.Ticks,
		"grantedBytesDL", summary.GrantedBytes[types.Downlink],
		"grantedBytesUL", summary.GrantedBytes[types.Uplink],
		"terminatedTicks", summary.TerminatedTicks,
		"activeFlows", summary.ActiveFlows,
		"elapsed", summary.Elapsed.String())
	return summary, nil
}

// generateArrivals adds this tick's traffic to every flow's backlog and
// (re-)activates flows that now have data. Arrivals are uniform in
// [0, 2*mean], so the long-run average matches the configured mean.
func (s *Simulation) generateArrivals() {
	for _, f := range s.cfg.Flows {
		if f.MeanArrivalBytes == 0 {
			continue
		}
		cid := types.ConnectionID(f.Connection)
		dir, _ := parseDirection(f.Direction)

		arrival := uint64(s.rng.Int63n(2*f.MeanArrivalBytes + 1))
		s.env.backlog[dir][cid] += arrival

		if s.env.backlog[dir][cid] > 0 {
			// Between ticks the connection layer re-activates flows with data.
			if err := s.schedulers[dir].AddConnection(cid); err != nil {
				s.logger.Error(err, "Failed to activate connection", "cid", cid)
			}
		}
	}
}
