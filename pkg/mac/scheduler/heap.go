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

import "github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"

// scoredCandidate is one (connection, score) pair produced by the scorer. It is
// ephemeral: built fresh each tick and never persisted.
type scoredCandidate struct {
	cid   types.ConnectionID
	score float64
}

// candidateHeap is a binary max-heap of scored candidates, drained highest score
// first by the allocation loop. It is built and consumed within a single tick by a
// single goroutine, so it needs no locking.
type candidateHeap struct {
	items []scoredCandidate
}

func newCandidateHeap(capacity int) *candidateHeap {
	return &candidateHeap{items: make([]scoredCandidate, 0, capacity)}
}

// Len returns the number of queued candidates.
func (h *candidateHeap) Len() int {
	return len(h.items)
}

// Push adds a candidate to the heap.
func (h *candidateHeap) Push(c scoredCandidate) {
	h.items = append(h.items, c)
	h.up(len(h.items) - 1)
}

// Pop removes and returns the highest-scored candidate. The heap must not be
// empty.
func (h *candidateHeap) Pop() scoredCandidate {
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]
	if last > 0 {
		h.down(0)
	}
	return top
}

func (h *candidateHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].score <= h.items[parent].score {
			return
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *candidateHeap) down(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		largest := left
		if right := left + 1; right < n && h.items[right].score > h.items[left].score {
			largest = right
		}
		if h.items[largest].score <= h.items[i].score {
			return
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}
