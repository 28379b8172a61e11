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

// Package contracts defines the interfaces the scheduler consumes from the
// surrounding radio stack. The scheduler only ever reads through these interfaces
// during a tick, with the single exception of ResourceAllocator.RequestGrant, which
// commits transmission resources as a side effect.
//
// All implementations must tolerate being called repeatedly within one tick and,
// for the QoS source, concurrent reads from multiple scheduler instances (one per
// carrier and direction) in the same tick.
package contracts

import (
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/qos"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
)

// NodeResolver maps connections to their owning nodes and reports node presence.
type NodeResolver interface {
	// NodeForConnection returns the node owning cid. The second return value is
	// false when the connection has no valid node mapping.
	NodeForConnection(cid types.ConnectionID) (types.NodeID, bool)

	// IsNodePresent reports whether the node is currently part of the simulated
	// network. A connection whose node is absent is permanently ineligible.
	IsNodePresent(node types.NodeID) bool
}

// BacklogSource reports the bytes queued for a connection.
//
// Downlink backlog comes from the base station's transmit queues; uplink backlog
// comes from the buffer status reports (virtual buffers). Both are keyed by
// ConnectionID — implementations must not introduce a second keying scheme.
type BacklogSource interface {
	// QueuedBytes returns the current backlog of cid in the given direction, in
	// bytes. Zero means the connection has nothing to send.
	QueuedBytes(cid types.ConnectionID, dir types.Direction) uint64
}

// TxParams is the channel state the link-adaptation layer reports for one node on
// one carrier: the assigned antennas, the usable frequency bands, and the channel
// quality indicators backing them.
type TxParams struct {
	Antennas []types.Antenna
	Bands    []types.Band
	CQIs     []uint8
}

// Usable reports whether the parameters carry enough information to schedule on:
// at least one band and at least one channel quality report.
func (p TxParams) Usable() bool {
	return len(p.CQIs) > 0 && len(p.Bands) > 0
}

// LinkAdaptor exposes the adaptive modulation and coding layer: per-node channel
// state and the byte yield of resource blocks under the node's current modulation
// scheme.
type LinkAdaptor interface {
	// TxParams returns the current transmission parameters for the node in the
	// given direction on the given carrier frequency (GHz).
	TxParams(node types.NodeID, dir types.Direction, carrierFrequency float64) TxParams

	// BytesOnBlocks returns how many bytes the node can carry on the given number
	// of resource blocks of the band, under its current modulation and coding
	// scheme.
	BytesOnBlocks(node types.NodeID, band types.Band, blocks uint32, dir types.Direction, carrierFrequency float64) uint32
}

// ResourceAllocator owns the per-tick radio resources. It answers availability
// queries during scoring and commits grants during allocation.
type ResourceAllocator interface {
	// AvailableBlocks returns the resource blocks currently unallocated for the
	// node on the given antenna and band.
	AvailableBlocks(node types.NodeID, antenna types.Antenna, band types.Band) uint32

	// RequestGrant commits up to limitBytes of transmission resources to cid and
	// returns the outcome. Pass types.NoByteLimit for an unbounded ceiling.
	// Side effect: mutates the per-flow transmission state.
	RequestGrant(cid types.ConnectionID, limitBytes uint32) types.GrantResult
}

// QoSSource resolves the QoS context of a connection. A missing context is not an
// error: the flow simply gets the neutral default weight.
type QoSSource interface {
	// ContextForConnection returns the QoS context bound to cid, or false when the
	// connection has no registered QoS class.
	ContextForConnection(cid types.ConnectionID) (qos.Context, bool)
}
