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

// Package types defines the domain identifiers and small value types shared by the
// MAC scheduling packages.
package types

import (
	"fmt"
	"math"
)

// ConnectionID identifies a single logical data flow between a network node and the
// base station. It is the single key type used for backlog lookups, grant
// accounting, and QoS binding in both directions.
type ConnectionID uint32

func (c ConnectionID) String() string {
	return fmt.Sprintf("cid-%d", uint32(c))
}

// NodeID identifies a network node (a UE) attached to the base station.
type NodeID uint16

// NodeNone is the zero NodeID, reported when a connection has no valid node mapping.
const NodeNone NodeID = 0

func (n NodeID) String() string {
	return fmt.Sprintf("node-%d", uint16(n))
}

// QFI is a QoS Flow Identifier: a small positive integer grouping flows that share
// QoS treatment. Zero means "no QFI assigned".
type QFI uint8

// QFINone indicates the absence of a QFI binding.
const QFINone QFI = 0

// Direction of a flow relative to the base station.
type Direction int

const (
	// Downlink is base station to node.
	Downlink Direction = iota
	// Uplink is node to base station.
	Uplink
)

func (d Direction) String() string {
	switch d {
	case Downlink:
		return "DL"
	case Uplink:
		return "UL"
	default:
		return fmt.Sprintf("direction-%d", int(d))
	}
}

// Antenna identifies one antenna (or remote radio head) of the base station.
type Antenna uint8

// Band identifies one frequency band (a contiguous group of resource blocks).
type Band uint16

// NoByteLimit is the unbounded grant ceiling: the granter should commit as many
// bytes as the flow's current channel and queue state allow this tick.
const NoByteLimit uint32 = math.MaxUint32

// GrantResult is the outcome of one invocation of the grant primitive.
type GrantResult struct {
	// GrantedBytes is the number of bytes committed to the flow.
	GrantedBytes uint32
	// Terminate reports that no resources of any kind remain this tick; the caller
	// must stop granting entirely.
	Terminate bool
	// Active reports whether the flow remains eligible for scheduling in future
	// ticks. A false value removes the flow from the active set.
	Active bool
	// Eligible reports whether the flow could still consume more resources right
	// now. It never re-adds resources; an ineligible flow is simply not served
	// again within the same tick.
	Eligible bool
}

// ConnectionSet is a set of connection identifiers.
type ConnectionSet map[ConnectionID]struct{}

// NewConnectionSet returns a set holding the given connections.
func NewConnectionSet(cids ...ConnectionID) ConnectionSet {
	s := make(ConnectionSet, len(cids))
	for _, cid := range cids {
		s[cid] = struct{}{}
	}
	return s
}

// Add inserts cid into the set.
func (s ConnectionSet) Add(cid ConnectionID) {
	s[cid] = struct{}{}
}

// Remove deletes cid from the set.
func (s ConnectionSet) Remove(cid ConnectionID) {
	delete(s, cid)
}

// Has reports whether cid is in the set.
func (s ConnectionSet) Has(cid ConnectionID) bool {
	_, ok := s[cid]
	return ok
}

// Len returns the number of connections in the set.
func (s ConnectionSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set.
func (s ConnectionSet) Clone() ConnectionSet {
	c := make(ConnectionSet, len(s))
	for cid := range s {
		c[cid] = struct{}{}
	}
	return c
}

// IsSubsetOf reports whether every connection in s is also in other.
func (s ConnectionSet) IsSubsetOf(other ConnectionSet) bool {
	for cid := range s {
		if !other.Has(cid) {
			return false
		}
	}
	return true
}
