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
	"sync"

	"github.com/go-logr/logr"

	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

const registryLoggerName = "QFIContextRegistry"

// Registry is the shared, read-mostly index of QoS flow contexts. It is keyed by
// QFI with a secondary index from connection id to QFI.
//
// The registry is owned by the surrounding application and passed by reference to
// every scheduler instance at construction. Schedulers only read from it; multiple
// schedulers may read concurrently within the same tick. All methods are
// goroutine-safe.
type Registry struct {
	mu           sync.RWMutex
	byQFI        map[types.QFI]Context
	byConnection map[types.ConnectionID]types.QFI
	logger       logr.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger logr.Logger) *Registry {
	return &Registry{
		byQFI:        make(map[types.QFI]Context),
		byConnection: make(map[types.ConnectionID]types.QFI),
		logger:       logger.WithName(registryLoggerName),
	}
}

// Register adds or replaces the context for its QFI.
func (r *Registry) Register(ctx Context) error {
	if ctx.QFI == types.QFINone {
		return fmt.Errorf("cannot register QoS context: %w", ErrInvalidQFI)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byQFI[ctx.QFI] = ctx
	r.logger.V(logutil.DEFAULT).Info("Registered QoS context",
		"qfi", ctx.QFI, "fiveQI", ctx.FiveQI, "priorityLevel", ctx.PriorityLevel,
		"delayBudget", ctx.DelayBudget.String(), "gbr", ctx.GBR)
	return nil
}

// BindConnection maps a connection id to a registered QFI.
func (r *Registry) BindConnection(cid types.ConnectionID, qfi types.QFI) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byQFI[qfi]; !ok {
		return fmt.Errorf("cannot bind %s to QFI %d: %w", cid, qfi, ErrContextNotFound)
	}
	r.byConnection[cid] = qfi
	r.logger.V(logutil.VERBOSE).Info("Bound connection to QFI", "cid", cid, "qfi", qfi)
	return nil
}

// UnbindConnection removes the connection's QFI binding, if any.
func (r *Registry) UnbindConnection(cid types.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byConnection, cid)
}

// QFIForConnection returns the QFI bound to cid, or QFINone.
func (r *Registry) QFIForConnection(cid types.ConnectionID) types.QFI {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConnection[cid]
}

// ContextByQFI returns a copy of the context registered under qfi.
func (r *Registry) ContextByQFI(qfi types.QFI) (Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.byQFI[qfi]
	return ctx, ok
}

// ContextForConnection resolves cid to its QoS context through the QFI binding.
// The second return value is false when the connection has no binding or the bound
// QFI has no registered context.
func (r *Registry) ContextForConnection(cid types.ConnectionID) (Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qfi, ok := r.byConnection[cid]
	if !ok {
		return Context{}, false
	}
	ctx, ok := r.byQFI[qfi]
	return ctx, ok
}

// Len returns the number of registered contexts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byQFI)
}
