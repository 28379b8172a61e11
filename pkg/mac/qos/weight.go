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

package qos

import (
	"fmt"
	"math"
	"time"
)

// NeutralWeight is the weight applied to flows with no registered QoS context.
const NeutralWeight = 1.0

const (
	// ExponentialPolicyName selects the exponential priority-scaling policy.
	ExponentialPolicyName = "exponential"
	// InversePolicyName selects the inverse-proportional priority policy.
	InversePolicyName = "inverse"
)

// WeightPolicy maps a QoS context to a strictly positive multiplicative scheduling
// weight.
//
// Every policy guarantees, for fixed other attributes:
//   - weight > 0 for all valid contexts;
//   - weight is non-increasing as PriorityLevel increases;
//   - weight is non-increasing as DelayBudget moves past each threshold;
//   - a GBR flow never weighs less than an otherwise identical non-GBR flow.
type WeightPolicy interface {
	// Name returns the policy's registered name.
	Name() string
	// Weight computes the weight of the given context. It must not retain or
	// mutate the context and must be deterministic.
	Weight(ctx Context) float64
}

// PolicyByName returns the weight policy registered under name.
func PolicyByName(name string) (WeightPolicy, error) {
	switch name {
	case ExponentialPolicyName:
		return ExponentialPolicy{}, nil
	case InversePolicyName:
		return InversePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown QoS weight policy %q", name)
	}
}

const (
	// priorityBase is the base of the exponential priority term. A higher base
	// creates more separation between adjacent priority levels.
	priorityBase = 2.0
	// maxPriorityLevel anchors the exponent so that priority level 1 gets
	// priorityBase^(maxPriorityLevel-1) and level maxPriorityLevel gets 1.
	maxPriorityLevel = 9

	tightDelayBudget    = 10 * time.Millisecond
	moderateDelayBudget = 50 * time.Millisecond
	relaxedDelayBudget  = 100 * time.Millisecond
)

// ExponentialPolicy scales the weight exponentially with priority: level 1 gets
// 2^8, level 9 gets 2^0. Flows with tight delay budgets receive an aggressive
// bonus, and GBR flows a constant multiplier.
type ExponentialPolicy struct{}

// Name returns the policy name.
func (ExponentialPolicy) Name() string { return ExponentialPolicyName }

// Weight computes the exponential weight for ctx.
func (ExponentialPolicy) Weight(ctx Context) float64 {
	weight := 1.0

	// Lower priority level is better. Levels beyond maxPriorityLevel yield
	// fractional weights, still strictly positive and monotonic.
	weight *= math.Pow(priorityBase, float64(maxPriorityLevel)-float64(ctx.PriorityLevel))

	switch {
	case ctx.DelayBudget <= tightDelayBudget:
		weight *= 10.0
	case ctx.DelayBudget <= moderateDelayBudget:
		weight *= 3.0
	}

	if ctx.GBR {
		weight *= 2.0
	}

	return weight
}

// InversePolicy combines a linear term decreasing with the 5QI class, an
// inverse-proportional term in the priority level, a GBR multiplier, and a
// three-tier delay-budget multiplier.
type InversePolicy struct{}

// Name returns the policy name.
func (InversePolicy) Name() string { return InversePolicyName }

// Weight computes the inverse-proportional weight for ctx.
func (InversePolicy) Weight(ctx Context) float64 {
	weight := 1.0

	// Lower 5QI is better. Classes beyond 10 clamp to the floor so the weight
	// stays strictly positive.
	classTerm := 10.0 - float64(ctx.FiveQI) + 1.0
	if classTerm < 1.0 {
		classTerm = 1.0
	}
	weight *= classTerm

	if ctx.GBR {
		weight *= 2.0
	}

	// Lower priority level is better.
	weight *= 10.0 / (float64(ctx.PriorityLevel) + 1.0)

	switch {
	case ctx.DelayBudget <= tightDelayBudget:
		weight *= 5.0
	case ctx.DelayBudget <= moderateDelayBudget:
		weight *= 3.0
	case ctx.DelayBudget <= relaxedDelayBudget:
		weight *= 1.5
	}

	return weight
}
