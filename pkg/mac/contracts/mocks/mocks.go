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

// Package mocks provides mocks for the interfaces defined in the contracts
// package.
//
// The mocks are "stub-style": methods are implemented as function fields (e.g.
// NodeForConnectionFunc). A test injects behavior by setting the desired function
// field; a nil func returns the zero value.
package mocks

import (
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/contracts"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// MockNodeResolver mocks contracts.NodeResolver.
type MockNodeResolver struct {
	NodeForConnectionFunc func(cid types.ConnectionID) (types.NodeID, bool)
	IsNodePresentFunc     func(node types.NodeID) bool
}

func (m *MockNodeResolver) NodeForConnection(cid types.ConnectionID) (types.NodeID, bool) {
	if m.NodeForConnectionFunc != nil {
		return m.NodeForConnectionFunc(cid)
	}
	return types.NodeNone, false
}

func (m *MockNodeResolver) IsNodePresent(node types.NodeID) bool {
	if m.IsNodePresentFunc != nil {
		return m.IsNodePresentFunc(node)
	}
	return false
}

var _ contracts.NodeResolver = &MockNodeResolver{}

// MockBacklogSource mocks contracts.BacklogSource.
type MockBacklogSource struct {
	QueuedBytesFunc func(cid types.ConnectionID, dir types.Direction) uint64
}

func (m *MockBacklogSource) QueuedBytes(cid types.ConnectionID, dir types.Direction) uint64 {
	if m.QueuedBytesFunc != nil {
		return m.QueuedBytesFunc(cid, dir)
	}
	return 0
}

var _ contracts.BacklogSource = &MockBacklogSource{}

// MockLinkAdaptor mocks contracts.LinkAdaptor.
type MockLinkAdaptor struct {
	TxParamsFunc      func(node types.NodeID, dir types.Direction, carrierFrequency float64) contracts.TxParams
	BytesOnBlocksFunc func(node types.NodeID, band types.Band, blocks uint32, dir types.Direction, carrierFrequency float64) uint32
}

func (m *MockLinkAdaptor) TxParams(node types.NodeID, dir types.Direction, carrierFrequency float64) contracts.TxParams {
	if m.TxParamsFunc != nil {
		return m.TxParamsFunc(node, dir, carrierFrequency)
	}
	return contracts.TxParams{}
}

func (m *MockLinkAdaptor) BytesOnBlocks(node types.NodeID, band types.Band, blocks uint32, dir types.Direction, carrierFrequency float64) uint32 {
	if m.BytesOnBlocksFunc != nil {
		return m.BytesOnBlocksFunc(node, band, blocks, dir, carrierFrequency)
	}
	return 0
}

var _ contracts.LinkAdaptor = &MockLinkAdaptor{}

// MockResourceAllocator mocks contracts.ResourceAllocator. It records every grant
// request in order, so tests can assert on the service order the allocation loop
// produced.
type MockResourceAllocator struct {
	AvailableBlocksFunc func(node types.NodeID, antenna types.Antenna, band types.Band) uint32
	RequestGrantFunc    func(cid types.ConnectionID, limitBytes uint32) types.GrantResult

	// GrantRequests holds the connection ids passed to RequestGrant, in call
	// order.
	GrantRequests []types.ConnectionID
}

func (m *MockResourceAllocator) AvailableBlocks(node types.NodeID, antenna types.Antenna, band types.Band) uint32 {
	if m.AvailableBlocksFunc != nil {
		return m.AvailableBlocksFunc(node, antenna, band)
	}
	return 0
}

func (m *MockResourceAllocator) RequestGrant(cid types.ConnectionID, limitBytes uint32) types.GrantResult {
	m.GrantRequests = append(m.GrantRequests, cid)
	if m.RequestGrantFunc != nil {
		return m.RequestGrantFunc(cid, limitBytes)
	}
	return types.GrantResult{}
}

var _ contracts.ResourceAllocator = &MockResourceAllocator{}

// MockQoSSource mocks contracts.QoSSource.
type MockQoSSource struct {
	ContextForConnectionFunc func(cid types.ConnectionID) (qos.Context, bool)
}

func (m *MockQoSSource) ContextForConnection(cid types.ConnectionID) (qos.Context, bool) {
	if m.ContextForConnectionFunc != nil {
		return m.ContextForConnectionFunc(cid)
	}
	return qos.Context{}, false
}

var _ contracts.QoSSource = &MockQoSSource{}
