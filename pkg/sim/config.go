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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/scheduler"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

const (
	DefaultSeed          = int64(1)
	DefaultTicks         = 1000
	DefaultCarrier       = 3.5
	DefaultBands         = 4
	DefaultAntennas      = 1
	DefaultBlocksPerBand = 25
)

// SchedulerConfig is the YAML-facing subset of the scheduler knobs.
type SchedulerConfig struct {
	Alpha         *float64 `yaml:"alpha"`
	Beta          *float64 `yaml:"beta"`
	ScoreEpsilon  *float64 `yaml:"scoreEpsilon"`
	WeightPolicy  string   `yaml:"weightPolicy"`
	OverrideQFI   *uint8   `yaml:"overrideQFI"`
	OverrideBonus *float64 `yaml:"overrideBonus"`
}

// NodeConfig describes one simulated network node.
type NodeConfig struct {
	ID uint16 `yaml:"id"`
	// CQI is the node's channel quality indicator, 1..15.
	CQI uint8 `yaml:"cqi"`
}

// FlowConfig describes one simulated data flow.
type FlowConfig struct {
	Connection uint32 `yaml:"connection"`
	Node       uint16 `yaml:"node"`
	// Direction is "DL" or "UL".
	Direction string `yaml:"direction"`
	// QFI binds the flow to a QoS context; 0 leaves the flow without one.
	QFI uint8 `yaml:"qfi"`
	// MeanArrivalBytes is the average traffic arriving per tick.
	MeanArrivalBytes int64 `yaml:"meanArrivalBytes"`
}

// Config is a full simulation scenario.
type Config struct {
	Seed             int64         `yaml:"seed"`
	Ticks            int           `yaml:"ticks"`
	TickInterval     time.Duration `yaml:"tickInterval"`
	CarrierFrequency float64       `yaml:"carrierFrequency"`
	Bands            int           `yaml:"bands"`
	Antennas         int           `yaml:"antennas"`
	// BlocksPerBand is the resource blocks each (antenna, band) pair offers per
	// tick and direction.
	BlocksPerBand int `yaml:"blocksPerBand"`

	Scheduler SchedulerConfig `yaml:"scheduler"`
	Nodes     []NodeConfig    `yaml:"nodes"`
	Flows     []FlowConfig    `yaml:"flows"`
}

// LoadConfig reads and validates a scenario file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Ticks <= 0 {
		c.Ticks = DefaultTicks
	}
	if c.CarrierFrequency <= 0 {
		c.CarrierFrequency = DefaultCarrier
	}
	if c.Bands <= 0 {
		c.Bands = DefaultBands
	}
	if c.Antennas <= 0 {
		c.Antennas = DefaultAntennas
	}
	if c.BlocksPerBand <= 0 {
		c.BlocksPerBand = DefaultBlocksPerBand
	}
}

func (c *Config) validate() error {
	nodes := make(map[uint16]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.CQI < 1 || n.CQI > 15 {
			return fmt.Errorf("node %d: CQI %d out of range 1..15", n.ID, n.CQI)
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		nodes[n.ID] = struct{}{}
	}

	connections := make(map[uint32]struct{}, len(c.Flows))
	for _, f := range c.Flows {
		if _, ok := nodes[f.Node]; !ok {
			return fmt.Errorf("flow %d references unknown node %d", f.Connection, f.Node)
		}
		if _, err := parseDirection(f.Direction); err != nil {
			return fmt.Errorf("flow %d: %w", f.Connection, err)
		}
		if f.MeanArrivalBytes < 0 {
			return fmt.Errorf("flow %d: negative mean arrival", f.Connection)
		}
		if _, dup := connections[f.Connection]; dup {
			return fmt.Errorf("duplicate connection id %d", f.Connection)
		}
		connections[f.Connection] = struct{}{}
	}
	return nil
}

// schedulerConfig materializes the scheduler config for one direction, applying
// the scenario's overrides on top of the scheduler defaults.
func (c *Config) schedulerConfig(dir types.Direction) *scheduler.Config {
	cfg := scheduler.NewConfig(dir, c.CarrierFrequency)
	if c.Scheduler.Alpha != nil {
		cfg.Alpha = *c.Scheduler.Alpha
	}
	if c.Scheduler.Beta != nil {
		cfg.Beta = *c.Scheduler.Beta
	}
	if c.Scheduler.ScoreEpsilon != nil {
		cfg.ScoreEpsilon = *c.Scheduler.ScoreEpsilon
	}
	if c.Scheduler.WeightPolicy != "" {
		cfg.WeightPolicyName = c.Scheduler.WeightPolicy
	}
	if c.Scheduler.OverrideQFI != nil {
		cfg.OverrideQFI = types.QFI(*c.Scheduler.OverrideQFI)
	}
	if c.Scheduler.OverrideBonus != nil {
		cfg.OverrideBonus = *c.Scheduler.OverrideBonus
	}
	return cfg
}

func parseDirection(s string) (types.Direction, error) {
	switch s {
	case "DL", "dl":
		return types.Downlink, nil
	case "UL", "ul":
		return types.Uplink, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}
