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
	"github.com/go-logr/logr"

	envutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/env"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// Environment variables for overriding the scheduling knobs.
const (
	EnvAlpha         = "SCHED_LYAPUNOV_ALPHA"
	EnvBeta          = "SCHED_LYAPUNOV_BETA"
	EnvScoreEpsilon  = "SCHED_SCORE_EPSILON"
	EnvWeightPolicy  = "SCHED_QOS_WEIGHT_POLICY"
	EnvOverrideQFI   = "SCHED_STRICT_PRIORITY_QFI"
	EnvOverrideBonus = "SCHED_STRICT_PRIORITY_BONUS"
)

const (
	// DefaultAlpha is the default exponent on queue backlog (drift term).
	DefaultAlpha = 1.0
	// DefaultBeta is the default exponent on the QoS weight (penalty term).
	DefaultBeta = 1.0
	// DefaultScoreEpsilon bounds the symmetric random tie-breaking perturbation.
	DefaultScoreEpsilon = 1e-6
	// DefaultWeightPolicyName selects the exponential QoS weight policy.
	DefaultWeightPolicyName = qos.ExponentialPolicyName
	// DefaultOverrideQFI is the ultra-low-latency class served with strict
	// priority. QFI 4 carries URLLC traffic in the default context set.
	DefaultOverrideQFI = types.QFI(4)
	// DefaultOverrideBonus is the multiplicative bonus that puts override-class
	// flows ahead of any non-overridden flow regardless of backlog or rate.
	DefaultOverrideBonus = 1e12
)

// Config holds the tunable parameters of one scheduler instance.
type Config struct {
	// Direction is the traffic direction this instance schedules.
	Direction types.Direction
	// CarrierFrequency is the carrier this instance schedules, in GHz.
	CarrierFrequency float64
	// Alpha is the non-negative exponent applied to queue backlog. Larger values
	// weigh queue-length pressure more heavily.
	Alpha float64
	// Beta is the non-negative exponent applied to the QoS weight. Larger values
	// weigh QoS priority more heavily.
	Beta float64
	// ScoreEpsilon bounds the random perturbation added to every score to break
	// exact ties. Must be non-negative.
	ScoreEpsilon float64
	// WeightPolicyName selects the QoS weight policy by name.
	WeightPolicyName string
	// OverrideQFI designates the strict-priority class. types.QFINone disables
	// the override.
	OverrideQFI types.QFI
	// OverrideBonus is the multiplicative score bonus of the override class.
	OverrideBonus float64
}

// NewConfig returns a Config for the given direction and carrier with all knobs at
// their defaults.
func NewConfig(dir types.Direction, carrierFrequency float64) *Config {
	return &Config{
		Direction:        dir,
		CarrierFrequency: carrierFrequency,
		Alpha:            DefaultAlpha,
		Beta:             DefaultBeta,
		ScoreEpsilon:     DefaultScoreEpsilon,
		WeightPolicyName: DefaultWeightPolicyName,
		OverrideQFI:      DefaultOverrideQFI,
		OverrideBonus:    DefaultOverrideBonus,
	}
}

// LoadFromEnv applies environment variable overrides to the config.
func (c *Config) LoadFromEnv(logger logr.Logger) *Config {
	c.Alpha = envutil.GetEnvFloat(EnvAlpha, c.Alpha, logger)
	c.Beta = envutil.GetEnvFloat(EnvBeta, c.Beta, logger)
	c.ScoreEpsilon = envutil.GetEnvFloat(EnvScoreEpsilon, c.ScoreEpsilon, logger)
	c.WeightPolicyName = envutil.GetEnvString(EnvWeightPolicy, c.WeightPolicyName, logger)
	c.OverrideQFI = types.QFI(envutil.GetEnvInt(EnvOverrideQFI, int(c.OverrideQFI), logger))
	c.OverrideBonus = envutil.GetEnvFloat(EnvOverrideBonus, c.OverrideBonus, logger)
	return c
}

// withDefaults returns a copy of the config with invalid values replaced by their
// defaults.
func (c *Config) withDefaults(logger logr.Logger) Config {
	cfg := *c
	if cfg.Alpha < 0 {
		logger.Info("Negative alpha, falling back to default", "alpha", cfg.Alpha, "default", DefaultAlpha)
		cfg.Alpha = DefaultAlpha
	}
	if cfg.Beta < 0 {
		logger.Info("Negative beta, falling back to default", "beta", cfg.Beta, "default", DefaultBeta)
		cfg.Beta = DefaultBeta
	}
	if cfg.ScoreEpsilon < 0 {
		logger.Info("Negative score epsilon, falling back to default", "scoreEpsilon", cfg.ScoreEpsilon, "default", DefaultScoreEpsilon)
		cfg.ScoreEpsilon = DefaultScoreEpsilon
	}
	if cfg.OverrideBonus <= 0 {
		logger.Info("Non-positive override bonus, falling back to default", "overrideBonus", cfg.OverrideBonus, "default", DefaultOverrideBonus)
		cfg.OverrideBonus = DefaultOverrideBonus
	}
	if cfg.WeightPolicyName == "" {
		cfg.WeightPolicyName = DefaultWeightPolicyName
	}
	return cfg
}
