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

// Package qos holds the QoS flow context model, the weight policies that map a
// context to a scheduling weight, and the shared QFI context registry.
package qos

import (
	"time"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// Context describes the QoS treatment of one QoS flow. Contexts are immutable once
// registered; the registry hands out copies.
type Context struct {
	// QFI identifies the QoS flow this context belongs to.
	QFI types.QFI
	// FiveQI is the standardized 5G QoS class of the flow (lower is better).
	FiveQI uint8
	// PriorityLevel is the scheduling priority of the flow; smaller values mean
	// higher priority.
	PriorityLevel uint8
	// DelayBudget is the packet delay budget of the flow.
	DelayBudget time.Duration
	// GBR marks a Guaranteed Bit Rate flow.
	GBR bool
}

// Standard contexts available to harnesses and tests, loosely modeled on the 3GPP
// standardized 5QI table.
var (
	// ContextConversationalVoice is GBR voice traffic (5QI 1).
	ContextConversationalVoice = Context{QFI: 1, FiveQI: 1, PriorityLevel: 2, DelayBudget: 100 * time.Millisecond, GBR: true}
	// ContextSignaling is IMS signaling (5QI 5).
	ContextSignaling = Context{QFI: 2, FiveQI: 5, PriorityLevel: 1, DelayBudget: 100 * time.Millisecond}
	// ContextLowLatency is URLLC-style traffic with a tight delay budget.
	ContextLowLatency = Context{QFI: 4, FiveQI: 3, PriorityLevel: 3, DelayBudget: 10 * time.Millisecond, GBR: true}
	// ContextBestEffort is default bearer traffic (5QI 9).
	ContextBestEffort = Context{QFI: 9, FiveQI: 9, PriorityLevel: 9, DelayBudget: 300 * time.Millisecond}
)
